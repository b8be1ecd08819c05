package document

import "maps"

// Response holds options a worker sets on the response to the task the
// document came from. It belongs to the root document.
type Response struct {
	queue      string
	customData map[string]string
}

// Response returns the response options of d's task.
func (d *Document) Response() *Response {
	r := d.Root()
	if r.response == nil {
		r.response = &Response{}
	}
	return r.response
}

// QueueOverride returns the queue the response is sent to instead of the
// configured success and failure queues, or "" if there is none.
func (r *Response) QueueOverride() string {
	return r.queue
}

func (r *Response) SetQueueOverride(queue string) {
	r.queue = queue
}

// CustomData returns a copy of the custom data sent with the response.
func (r *Response) CustomData() map[string]string {
	return maps.Clone(r.customData)
}

// SetCustomData replaces the custom data sent with the response. An empty map
// sends none.
func (r *Response) SetCustomData(m map[string]string) {
	if len(m) == 0 {
		r.customData = nil
		return
	}
	r.customData = maps.Clone(m)
}
