package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/gateway"
	"ma-siu/services/notification/internal/repo/persistent"

	"github.com/google/uuid"
)

// fakeGuard mirrors SET NX: the first claim of a key wins.
type fakeGuard struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
	err      error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{keys: map[string]bool{}}
}

func (g *fakeGuard) IsDuplicate(ctx context.Context, recipientID, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keys[recipientID+":"+key], g.err
}

func (g *fakeGuard) Claim(ctx context.Context, recipientID, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	k := recipientID + ":" + key
	if g.keys[k] {
		return false, nil
	}
	g.keys[k] = true
	return true, nil
}

func (g *fakeGuard) Release(ctx context.Context, recipientID, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := recipientID + ":" + key
	delete(g.keys, k)
	g.released = append(g.released, k)
	return nil
}

type fakeNotificationRepo struct {
	mu        sync.Mutex
	items     map[string]*entity.Notification
	createErr error
	updateErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: map[string]*entity.Notification{}}
}

func (r *fakeNotificationRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	stored := *n
	r.items[n.ID] = &stored
	return nil
}

func (r *fakeNotificationRepo) Update(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.items[n.ID]; !ok {
		return persistent.ErrNotFound
	}
	stored := *n
	r.items[n.ID] = &stored
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	out := *n
	return &out, nil
}

func (r *fakeNotificationRepo) byUser(userID string) []*entity.Notification {
	var out []*entity.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeNotificationRepo) all() []*entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.items {
		c := *n
		out = append(out, &c)
	}
	return out
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, skip, limit int) ([]*entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.byUser(userID)
	total := int64(len(items))
	if skip >= len(items) {
		return []*entity.Notification{}, total, nil
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end], total, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.byUser(userID) {
		if item.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return persistent.ErrNotFound
	}
	n.ReadAt = &at
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, n := range r.items {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &at
			updated++
		}
	}
	return updated, nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*entity.DeviceToken
	deleted []string
	err     error
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: map[string]*entity.DeviceToken{}}
}

func (r *fakeDeviceRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeDeviceRepo) Upsert(ctx context.Context, d *entity.DeviceToken) (*entity.DeviceToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.devices[d.Token]; ok {
		d.CreatedAt = existing.CreatedAt
	}
	stored := *d
	r.devices[d.Token] = &stored
	out := stored
	return &out, nil
}

func (r *fakeDeviceRepo) Delete(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[token]
	if !ok || d.UserID != userID {
		return persistent.ErrNotFound
	}
	delete(r.devices, token)
	return nil
}

func (r *fakeDeviceRepo) DeleteTokens(ctx context.Context, tokens []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range tokens {
		if _, ok := r.devices[t]; ok {
			delete(r.devices, t)
			n++
		}
		r.deleted = append(r.deleted, t)
	}
	return n, nil
}

func (r *fakeDeviceRepo) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []string
	for token, d := range r.devices {
		if d.UserID == userID {
			out = append(out, token)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeDeviceRepo) TokensForTopic(ctx context.Context, topic string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for token, d := range r.devices {
		for _, t := range d.Topics {
			if t == topic {
				out = append(out, token)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// fakeGateway answers per token: tokens listed in failures get that error.
type fakeGateway struct {
	mu       sync.Mutex
	failures map[string]error
	topicErr error
	calls    []string
	topics   []string
	messages []gateway.Message
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failures: map[string]error{}}
}

func (g *fakeGateway) SendSingle(ctx context.Context, token string, msg gateway.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, token)
	if err := g.failures[token]; err != nil {
		return "", err
	}
	return "msg-" + token, nil
}

func (g *fakeGateway) SendMulticast(ctx context.Context, tokens []string, msg gateway.Message) (*gateway.MulticastResult, error) {
	result := &gateway.MulticastResult{}
	transport := 0
	for _, token := range tokens {
		id, err := g.SendSingle(ctx, token, msg)
		result.Results = append(result.Results, gateway.Result{Token: token, MessageID: id, Err: err})
		if err != nil {
			result.FailureCount++
			if gateway.IsTransport(err) {
				transport++
			}
			continue
		}
		result.SuccessCount++
	}
	if len(tokens) > 0 && transport == len(tokens) {
		return result, errors.Join(gateway.ErrTransport, errors.New("all deliveries failed"))
	}
	return result, nil
}

func (g *fakeGateway) SendToTopic(ctx context.Context, topic string, msg gateway.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.topics = append(g.topics, topic)
	g.messages = append(g.messages, msg)
	if g.topicErr != nil {
		return "", g.topicErr
	}
	return "topic:" + topic, nil
}

func (g *fakeGateway) deliveries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordingFeed struct {
	mu        sync.Mutex
	published []*entity.Notification
}

func (f *recordingFeed) Publish(ctx context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *n
	f.published = append(f.published, &c)
	return nil
}

var (
	_ persistent.NotificationRepository = (*fakeNotificationRepo)(nil)
	_ persistent.DeviceRepository       = (*fakeDeviceRepo)(nil)
	_ gateway.Gateway                   = (*fakeGateway)(nil)
	_ Guard                             = (*fakeGuard)(nil)
	_ LiveFeed                          = (*recordingFeed)(nil)
)
