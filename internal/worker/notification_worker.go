package worker

// Subscriber registers its handlers on the shared event dispatcher.
type Subscriber interface {
	RegisterHandlers()
}

// StartNotificationWorker registers the event handlers of every subscriber.
// Dispatch is synchronous, so handlers run on the publishing goroutine.
func StartNotificationWorker(subscribers ...Subscriber) {
	for _, s := range subscribers {
		if s == nil {
			continue
		}
		s.RegisterHandlers()
	}
}
