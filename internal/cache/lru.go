package cache

type lruNode struct {
	key   string
	value []byte
	next  *lruNode
	prev  *lruNode
}

// LRU is a simple O(1) least-recently-used cache for hot payloads.
// It is not safe for concurrent use; Tiered serializes access.
type LRU struct {
	size  int
	nodes map[string]*lruNode
	head  *lruNode
	tail  *lruNode
}

func NewLRU(size int) *LRU {
	return &LRU{
		size:  size,
		nodes: map[string]*lruNode{},
	}
}

func (c *LRU) Get(key string) ([]byte, bool) {
	node, ok := c.nodes[key]
	if !ok {
		return nil, false
	}
	c.moveToHead(node)
	return node.value, true
}

func (c *LRU) Set(key string, value []byte) {
	if node, ok := c.nodes[key]; ok {
		node.value = value
		c.moveToHead(node)
		return
	}

	node := &lruNode{
		key:   key,
		value: value,
	}
	c.nodes[key] = node
	c.addNode(node)
	if len(c.nodes) > c.size {
		delete(c.nodes, c.tail.key)
		c.removeNode(c.tail)
	}
}

func (c *LRU) Len() int {
	return len(c.nodes)
}

func (c *LRU) moveToHead(node *lruNode) {
	c.removeNode(node)
	node.prev = nil
	node.next = nil
	c.addNode(node)
}

func (c *LRU) addNode(node *lruNode) {
	if c.head != nil {
		c.head.prev = node
		node.next = c.head
	}
	if c.tail == nil {
		c.tail = node
	}
	c.head = node
}

func (c *LRU) removeNode(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
}
