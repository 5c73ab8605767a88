package message_queue

// OrderEvent is pushed to the in-process feed whenever an order, one
// of its items, or one of its payments changes. Consumers (kitchen and
// cashier displays) read it asynchronously; the feed is not durable.
type OrderEvent struct {
	Type        string `json:"type"`
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TableID     *uint  `json:"table_id,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

type MessageQueue struct {
	channel chan *OrderEvent
}

// NewMessageQueue A lightweight message queue based on Golang channel, not support message persistence.
func NewMessageQueue() *MessageQueue {
	newChan := make(chan *OrderEvent, 10000)
	return &MessageQueue{
		channel: newChan,
	}
}

func (mq *MessageQueue) Enqueue(msg *OrderEvent) {
	mq.channel <- msg
}

func (mq *MessageQueue) Dequeue() *OrderEvent {
	return <-mq.channel
}

func (mq *MessageQueue) GetMsgCount() int {
	return len(mq.channel)
}

func (mq *MessageQueue) CloseQueue() {
	close(mq.channel)
}
