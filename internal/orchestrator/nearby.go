package orchestrator

import (
	"context"
	"sort"

	"github.com/civitas-app/civitas/internal/feed"
	"github.com/civitas-app/civitas/internal/geo"
)

// DefaultNearbyLimit caps proximity queries that do not specify a limit.
const DefaultNearbyLimit = 10

// CamerasNearby returns the cameras closest to origin, nearest first, each
// annotated with its distance. Cameras without coordinates are excluded.
// The underlying bundle is left untouched.
func (o *Orchestrator) CamerasNearby(ctx context.Context, lang string, origin geo.Point, limit int) ([]feed.Camera, error) {
	b, err := o.Bundle(ctx, lang)
	if err != nil {
		return nil, err
	}
	return rankByDistance(b.Cameras, origin, limit,
		func(c feed.Camera) (geo.Point, bool) {
			if c.Lat == nil || c.Lon == nil {
				return geo.Point{}, false
			}
			return geo.Point{Lat: *c.Lat, Lon: *c.Lon}, true
		},
		func(c feed.Camera, m float64) feed.Camera {
			c.DistanceMeters = &m
			return c
		}), nil
}

// SirensNearby returns the sirens closest to origin, nearest first, each
// annotated with its distance. Sirens without coordinates are excluded.
func (o *Orchestrator) SirensNearby(ctx context.Context, lang string, origin geo.Point, limit int) ([]feed.Siren, error) {
	b, err := o.Bundle(ctx, lang)
	if err != nil {
		return nil, err
	}
	return rankByDistance(b.Sirens, origin, limit,
		func(s feed.Siren) (geo.Point, bool) {
			if s.Lat == nil || s.Lon == nil {
				return geo.Point{}, false
			}
			return geo.Point{Lat: *s.Lat, Lon: *s.Lon}, true
		},
		func(s feed.Siren, m float64) feed.Siren {
			s.DistanceMeters = &m
			return s
		}), nil
}

// rankByDistance copies the locatable items, annotates each with its
// distance from origin, and returns the nearest limit of them in stable
// order.
func rankByDistance[T any](items []T, origin geo.Point, limit int, at func(T) (geo.Point, bool), withDistance func(T, float64) T) []T {
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	type ranked struct {
		item T
		dist float64
	}
	out := make([]ranked, 0, len(items))
	for _, it := range items {
		p, ok := at(it)
		if !ok {
			continue
		}
		d := geo.DistanceMeters(origin, p)
		out = append(out, ranked{item: withDistance(it, d), dist: d})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].dist < out[j].dist })
	if len(out) > limit {
		out = out[:limit]
	}

	result := make([]T, len(out))
	for i, r := range out {
		result[i] = r.item
	}
	return result
}
