package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/dgallion1/figops/internal/pathstore"
)

const planPrefix = "figops/plans"

// RemoteStore keeps plans in a pathstore key-value service.
type RemoteStore struct {
	ps *pathstore.Client
}

func NewRemoteStore(ps *pathstore.Client) *RemoteStore {
	return &RemoteStore{ps: ps}
}

func planKey(figmaID string) string {
	return planPrefix + "/" + url.PathEscape(figmaID)
}

func (s *RemoteStore) Get(ctx context.Context, figmaID string) (*Plan, error) {
	node, err := s.ps.GetNode(ctx, planKey(figmaID))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNotFound
	}
	return decodePlan(node.Value)
}

func (s *RemoteStore) Put(ctx context.Context, plan *Plan) error {
	if err := Validate(plan); err != nil {
		return err
	}
	plan.UpdatedAt = time.Now().UTC()
	return s.ps.PutNode(ctx, planKey(plan.FigmaID), pathstore.NodeRequest{
		Value:  plan,
		Source: "figops",
	})
}

func (s *RemoteStore) Delete(ctx context.Context, figmaID string) error {
	err := s.ps.DeleteNode(ctx, planKey(figmaID), false)
	if errors.Is(err, pathstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *RemoteStore) List(ctx context.Context) ([]*Plan, error) {
	children, err := s.ps.ListChildren(ctx, planPrefix, 10000)
	if err != nil {
		return nil, err
	}
	plans := make([]*Plan, 0, len(children))
	for _, child := range children {
		p, err := decodePlan(child.Value)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", child.Key, err)
		}
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].FigmaID < plans[j].FigmaID })
	return plans, nil
}

func (s *RemoteStore) Close() error {
	s.ps.Close()
	return nil
}

// decodePlan converts a generically decoded JSON value back into a Plan.
func decodePlan(value any) (*Plan, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal plan value: %w", err)
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}
