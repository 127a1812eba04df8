package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/db"
	"google.golang.org/api/option"

	"go-stormwatch/types"
)

const (
	aggregationRoot = "aggregation"
	countsRoot      = "aggregationCounts"
)

// NewApp initializes the Firebase app from base64-encoded service account
// credentials, the same bootstrap shape the rest of our services use.
func NewApp(ctx context.Context, encodedCreds, databaseURL string) (*firebase.App, error) {
	creds, err := base64.StdEncoding.DecodeString(encodedCreds)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Firebase credentials: %w", err)
	}
	conf := &firebase.Config{DatabaseURL: databaseURL}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	return app, nil
}

// Firebase is the Realtime Database Store. Member and counter nodes live in
// parallel trees (aggregation/... and aggregationCounts/...); each mutation
// runs as a compare-and-swap transaction on its ref, and the counter
// transaction applies exactly the membership delta the member transaction
// observed, so concurrent writers can never lose an update.
type Firebase struct {
	client *db.Client
}

func NewFirebase(ctx context.Context, app *firebase.App) (*Firebase, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Realtime Database client: %w", err)
	}
	return &Firebase{client: client}, nil
}

// bucketNode mirrors aggregation/<phenomenon>/<bucketId>.
type bucketNode struct {
	Name       string                       `json:"name,omitempty"`
	Bounds     types.Bounds                 `json:"bounds,omitempty"`
	AlertForms map[string]types.AlertRecord `json:"alertForms,omitempty"`
}

func (n bucketNode) empty() bool {
	return n.Name == "" && n.Bounds.IsZero() && len(n.AlertForms) == 0
}

// countNode mirrors aggregationCounts/<phenomenon>/<bucketId>.
type countNode struct {
	Name    string `json:"name,omitempty"`
	Counter int64  `json:"counter"`
}

func bucketPath(ph types.Phenomenon, bucketID string) string {
	return fmt.Sprintf("%s/%s/%s", aggregationRoot, ph, bucketID)
}

func countPath(ph types.Phenomenon, bucketID string) string {
	return fmt.Sprintf("%s/%s/%s", countsRoot, ph, bucketID)
}

func (f *Firebase) BucketExists(ctx context.Context, ph types.Phenomenon, bucketID string) (bool, error) {
	var node map[string]interface{}
	if err := f.client.NewRef(bucketPath(ph, bucketID)).GetShallow(ctx, &node); err != nil {
		return false, fmt.Errorf("bucket existence check failed: %w", err)
	}
	return len(node) > 0, nil
}

func (f *Firebase) CreateBucket(ctx context.Context, ph types.Phenomenon, bucketID, name string, b types.Bounds) error {
	ref := f.client.NewRef(bucketPath(ph, bucketID))
	err := ref.Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var node bucketNode
		if err := tn.Unmarshal(&node); err != nil {
			return nil, err
		}
		if !node.empty() {
			return node, nil // bounds are fixed at first creation
		}
		return bucketNode{Name: name, Bounds: b}, nil
	})
	if err != nil {
		return fmt.Errorf("create bucket %s/%s: %w", ph, bucketID, err)
	}

	// Mirror the place name into the counts tree so clients reading only the
	// counters can still label them.
	cref := f.client.NewRef(countPath(ph, bucketID))
	err = cref.Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var node countNode
		if err := tn.Unmarshal(&node); err != nil {
			return nil, err
		}
		if node.Name == "" {
			node.Name = name
		}
		return node, nil
	})
	if err != nil {
		return fmt.Errorf("create counter node %s/%s: %w", ph, bucketID, err)
	}
	return nil
}

func (f *Firebase) AddMember(ctx context.Context, ph types.Phenomenon, bucketID, recordID string, rec types.AlertRecord) (bool, error) {
	added := false
	ref := f.client.NewRef(bucketPath(ph, bucketID))
	err := ref.Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		added = false // the transaction may retry
		var node bucketNode
		if err := tn.Unmarshal(&node); err != nil {
			return nil, err
		}
		if node.empty() {
			return nil, ErrBucketNotFound
		}
		if _, exists := node.AlertForms[recordID]; exists {
			return node, nil
		}
		if node.AlertForms == nil {
			node.AlertForms = make(map[string]types.AlertRecord)
		}
		node.AlertForms[recordID] = rec
		added = true
		return node, nil
	})
	if err != nil {
		if errors.Is(err, ErrBucketNotFound) {
			return false, ErrBucketNotFound
		}
		return false, fmt.Errorf("add member %s to %s/%s: %w", recordID, ph, bucketID, err)
	}
	if !added {
		return false, nil
	}
	if err := f.adjustCounter(ctx, ph, bucketID, +1); err != nil {
		return true, err
	}
	return true, nil
}

func (f *Firebase) RemoveMember(ctx context.Context, ph types.Phenomenon, bucketID, recordID string) error {
	ref := f.client.NewRef(bucketPath(ph, bucketID))
	err := ref.Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var node bucketNode
		if err := tn.Unmarshal(&node); err != nil {
			return nil, err
		}
		if node.empty() {
			return nil, ErrBucketNotFound
		}
		if _, exists := node.AlertForms[recordID]; !exists {
			return nil, ErrMemberNotFound
		}
		delete(node.AlertForms, recordID)
		if len(node.AlertForms) == 0 {
			return nil, nil // writing null removes the whole bucket node
		}
		return node, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBucketNotFound):
			return f.missingLevel(ctx, ph)
		case errors.Is(err, ErrMemberNotFound):
			return ErrMemberNotFound
		default:
			return fmt.Errorf("remove member %s from %s/%s: %w", recordID, ph, bucketID, err)
		}
	}
	return f.adjustCounter(ctx, ph, bucketID, -1)
}

// adjustCounter applies a membership delta to the counter node atomically.
// The counter never goes below zero, and the node is deleted when it reaches
// zero so empty buckets leave nothing behind.
func (f *Firebase) adjustCounter(ctx context.Context, ph types.Phenomenon, bucketID string, delta int64) error {
	cref := f.client.NewRef(countPath(ph, bucketID))
	err := cref.Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var node countNode
		if err := tn.Unmarshal(&node); err != nil {
			return nil, err
		}
		node.Counter += delta
		if node.Counter <= 0 {
			return nil, nil
		}
		return node, nil
	})
	if err != nil {
		return fmt.Errorf("adjust counter %s/%s by %d: %w", ph, bucketID, delta, err)
	}
	return nil
}

func (f *Firebase) DeleteBucket(ctx context.Context, ph types.Phenomenon, bucketID string) error {
	var places map[string]interface{}
	if err := f.client.NewRef(aggregationRoot+"/"+string(ph)).GetShallow(ctx, &places); err != nil {
		return fmt.Errorf("delete bucket %s/%s: %w", ph, bucketID, err)
	}
	if len(places) == 0 {
		return ErrPhenomenonNotFound
	}
	if _, ok := places[bucketID]; !ok {
		return ErrBucketNotFound
	}
	if err := f.client.NewRef(bucketPath(ph, bucketID)).Delete(ctx); err != nil {
		return fmt.Errorf("delete bucket %s/%s: %w", ph, bucketID, err)
	}
	if err := f.client.NewRef(countPath(ph, bucketID)).Delete(ctx); err != nil {
		return fmt.Errorf("delete counter %s/%s: %w", ph, bucketID, err)
	}
	return nil
}

// missingLevel tells a missing phenomenon apart from a missing bucket for
// purge reporting.
func (f *Firebase) missingLevel(ctx context.Context, ph types.Phenomenon) error {
	var places map[string]interface{}
	if err := f.client.NewRef(aggregationRoot+"/"+string(ph)).GetShallow(ctx, &places); err != nil {
		return fmt.Errorf("phenomenon existence check failed: %w", err)
	}
	if len(places) == 0 {
		return ErrPhenomenonNotFound
	}
	return ErrBucketNotFound
}

func (f *Firebase) ListBuckets(ctx context.Context) ([]types.Bucket, error) {
	var tree map[types.Phenomenon]map[string]bucketNode
	if err := f.client.NewRef(aggregationRoot).Get(ctx, &tree); err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	var out []types.Bucket
	for ph, places := range tree {
		for id, node := range places {
			out = append(out, types.Bucket{
				Phenomenon: ph,
				BucketID:   id,
				Name:       node.Name,
				Bounds:     node.Bounds,
				Members:    node.AlertForms,
			})
		}
	}
	return out, nil
}

func (f *Firebase) Counter(ctx context.Context, ph types.Phenomenon, bucketID string) (int64, error) {
	var node countNode
	if err := f.client.NewRef(countPath(ph, bucketID)).Get(ctx, &node); err != nil {
		return 0, fmt.Errorf("read counter %s/%s: %w", ph, bucketID, err)
	}
	return node.Counter, nil
}

func (f *Firebase) RecordSweep(ctx context.Context, sweptAtMillis int64, deleted int) error {
	if err := f.client.NewRef("lastCleanupTimestamp").Set(ctx, sweptAtMillis); err != nil {
		return fmt.Errorf("record sweep timestamp: %w", err)
	}
	if err := f.client.NewRef("lastNumOfDeletedAlerts").Set(ctx, deleted); err != nil {
		return fmt.Errorf("record sweep deletion count: %w", err)
	}
	return nil
}

func (f *Firebase) IncrementCounter(ctx context.Context, path string) error {
	err := f.client.NewRef(path).Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var current int64
		if err := tn.Unmarshal(&current); err != nil {
			return nil, err
		}
		return current + 1, nil
	})
	if err != nil {
		return fmt.Errorf("increment %s: %w", path, err)
	}
	return nil
}

func (f *Firebase) Tokens(ctx context.Context) ([]string, error) {
	var byUser map[string]string
	if err := f.client.NewRef("tokens").Get(ctx, &byUser); err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	tokens := make([]string, 0, len(byUser))
	for _, t := range byUser {
		tokens = append(tokens, t)
	}
	return tokens, nil
}
