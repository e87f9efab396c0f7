package events

import (
	"context"
	"errors"
)

// Multi publishes every event to each of pubs in order. A failing publisher
// does not stop the others; their errors are joined.
func Multi(pubs ...Publisher) Publisher {
	return multiPublisher(pubs)
}

type multiPublisher []Publisher

func (m multiPublisher) Publish(ctx context.Context, subject string, event any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, subject, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
