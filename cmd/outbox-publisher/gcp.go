package main

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// gcpPublisherFactory caches one ordered publisher per topic.
func gcpPublisherFactory(client pubSubClient) publisherFactory {
	cache := map[string]publisher{}
	return func(topic string) publisher {
		if p, ok := cache[topic]; ok {
			return p
		}
		raw := client.Publisher(topic)
		if raw == nil {
			return nil
		}
		raw.EnableMessageOrdering = true
		p := &gcpPublisher{raw: raw}
		cache[topic] = p
		return p
	}
}

type gcpPublisher struct {
	raw *gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpPublishResult{res: p.raw.Publish(ctx, msg), pub: p.raw, key: msg.OrderingKey}
}

// gcpPublishResult resumes the ordering key after a failure; Pub/Sub pauses
// a key until ResumePublish is called.
type gcpPublishResult struct {
	res *gcppubsub.PublishResult
	pub *gcppubsub.Publisher
	key string
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r.res == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := r.res.Get(ctx)
	if err != nil && r.key != "" {
		r.pub.ResumePublish(r.key)
	}
	return id, err
}
