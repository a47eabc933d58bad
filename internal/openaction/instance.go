package openaction

import (
	"context"
	"sort"
	"sync"
)

// Instance is one placement of an action on the control surface.
type Instance struct {
	client  *Client
	action  string
	context string

	mu    sync.Mutex
	state int
}

func (i *Instance) Context() string { return i.context }

func (i *Instance) Action() string { return i.action }

// State is the visual state index last reported by the host or set by the plugin.
func (i *Instance) State() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Instance) setLocalState(state int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = state
}

// SetState asks the host to show state and records it locally.
func (i *Instance) SetState(ctx context.Context, state int) error {
	err := i.client.send(ctx, outboundEvent{
		Event:   eventSetState,
		Context: i.context,
		Payload: statePayload{State: state},
	})
	if err != nil {
		return err
	}
	i.setLocalState(state)
	return nil
}

// ShowAlert flashes the host's failure indicator on the instance.
func (i *Instance) ShowAlert(ctx context.Context) error {
	return i.client.send(ctx, outboundEvent{Event: eventShowAlert, Context: i.context})
}

// registry tracks the visible instances by context.
type registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance
}

func newRegistry() *registry {
	return &registry{instances: make(map[string]*Instance)}
}

// upsert returns the instance for context, creating it when missing.
func (r *registry) upsert(client *Client, action, context string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instance, ok := r.instances[context]; ok {
		return instance
	}
	instance := &Instance{client: client, action: action, context: context}
	r.instances[context] = instance
	return instance
}

func (r *registry) remove(context string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, context)
}

func (r *registry) visible(action string) []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, 0)
	for _, instance := range r.instances {
		if instance.action == action {
			out = append(out, instance)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].context < out[b].context })
	return out
}
