// Package push delivers notifications to user devices over FCM.
package push

import "context"

// Notification is one message bound for a device.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Gateway abstracts the delivery transport. Send reports delivery as a
// boolean so one dead token never aborts a whole dispatch pass.
type Gateway interface {
	Send(ctx context.Context, token string, n Notification) bool
}
