// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/json"
	"sync"
)

// Subscription receives the notifications of one server-side subscription
// in arrival order. The reader goroutine never blocks on a slow consumer:
// notifications queue until Notifications is drained.
type Subscription struct {
	session     *Session
	method      string
	unsubMethod string
	id          string

	mu    sync.Mutex
	queue []json.RawMessage
	wake  chan struct{}
	out   chan json.RawMessage
	done  chan struct{}

	stopOnce  sync.Once
	unsubOnce sync.Once
}

func newSubscription(s *Session, method, unsubMethod string) *Subscription {
	return &Subscription{
		session:     s,
		method:      method,
		unsubMethod: unsubMethod,
		wake:        make(chan struct{}, 1),
		out:         make(chan json.RawMessage),
		done:        make(chan struct{}),
	}
}

// ID is the node-assigned subscription id.
func (sub *Subscription) ID() string {
	return sub.id
}

// Notifications yields each notification result. The channel is closed
// after Unsubscribe or when the session ends.
func (sub *Subscription) Notifications() <-chan json.RawMessage {
	return sub.out
}

// Done is closed once no further notifications will be delivered.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// Unsubscribe releases the server-side subscription. Only the first call
// sends the unsubscribe request; later calls are no-ops returning nil.
func (sub *Subscription) Unsubscribe() error {
	var err error
	sub.unsubOnce.Do(func() {
		sub.stop()
		sub.session.forget(sub)
		if sub.unsubMethod == "" || sub.id == "" {
			return
		}
		if sendErr := sub.session.send(sub.unsubMethod, []any{sub.id}); sendErr != nil && sub.session.Err() == nil {
			err = sendErr
		}
	})
	return err
}

func (sub *Subscription) stop() {
	sub.stopOnce.Do(func() {
		close(sub.done)
	})
}

func (sub *Subscription) deliver(result json.RawMessage) {
	select {
	case <-sub.done:
		return
	default:
	}
	sub.mu.Lock()
	sub.queue = append(sub.queue, result)
	sub.mu.Unlock()
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *Subscription) pump() {
	defer close(sub.out)
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			sub.mu.Unlock()
			select {
			case <-sub.wake:
				continue
			case <-sub.done:
				return
			}
		}
		next := sub.queue[0]
		sub.queue[0] = nil
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		select {
		case sub.out <- next:
		case <-sub.done:
			return
		}
	}
}
