package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("pubsub material orders topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client holds the Pub/Sub connection and the topics this service publishes to.
type Client struct {
	client    *pubsub.Client
	projectID string
	topics    []string
	create    bool
	logg      *logger.Logger
}

// NewClient connects to Pub/Sub and verifies the material-order topic. With
// CreateTopics set, a missing topic is created instead of failing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.MaterialOrdersTopic) == "" {
		return nil, errNoTopic
	}

	raw, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: raw, projectID: projectID, create: cfg.CreateTopics, logg: logg}
	if err := c.EnsureTopics(ctx, cfg.MaterialOrdersTopic); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topics", c.topics), "pubsub client initialized")
	}
	return c, nil
}

// EnsureTopics checks each topic exists and remembers it for Ping.
func (c *Client) EnsureTopics(ctx context.Context, names ...string) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	for _, name := range names {
		full := topicResourceName(c.projectID, name)
		if full == "" {
			return fmt.Errorf("topic %q not configured", name)
		}
		if err := c.ensureTopic(ctx, full); err != nil {
			return err
		}
		if !contains(c.topics, full) {
			c.topics = append(c.topics, full)
		}
	}
	return nil
}

func (c *Client) ensureTopic(ctx context.Context, full string) error {
	admin := c.client.TopicAdminClient
	_, err := admin.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("checking topic %s: %w", full, err)
	}
	if !c.create {
		return fmt.Errorf("topic %s does not exist", full)
	}
	if _, err := admin.CreateTopic(ctx, &pubsubpb.Topic{Name: full}); err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("creating topic %s: %w", full, err)
	}
	if c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "topic", full), "pubsub topic created")
	}
	return nil
}

// Publisher returns a publisher for a topic id or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := topicResourceName(c.projectID, name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// Ping re-checks every known topic.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	for _, full := range c.topics {
		if _, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full}); err != nil {
			return fmt.Errorf("topic %s: %w", full, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func topicResourceName(projectID, name string) string {
	n := strings.TrimSpace(name)
	switch {
	case n == "":
		return ""
	case strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/"):
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return "projects/" + p + "/topics/" + n
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
