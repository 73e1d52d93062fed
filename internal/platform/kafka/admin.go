// Package kafka holds broker administration helpers shared by the server and CLI.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// TopicSpec describes a topic the service publishes to.
type TopicSpec struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
}

// EnsureTopics creates any missing topics. Topics that already exist are
// left untouched.
func EnsureTopics(ctx context.Context, client *kgo.Client, topics ...TopicSpec) error {
	admin := kadm.NewClient(client)
	for _, t := range topics {
		resp, err := admin.CreateTopics(ctx, t.Partitions, t.ReplicationFactor, nil, t.Name)
		if err != nil {
			return fmt.Errorf("create topic %s: %w", t.Name, err)
		}
		for _, r := range resp {
			if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
				return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
			}
		}
	}
	return nil
}
