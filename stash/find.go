package stash

import (
	"context"
	"fmt"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/stashsurf-cli/stashsurf/log"
)

// normalizedName returns a lowercased, trimmed string for consistent comparison.
func normalizedName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindClosestTag returns the server tag closest to the given name.
// Exact (case-insensitive) matches win; otherwise the levenshtein-nearest tag is chosen.
func FindClosestTag(ctx context.Context, name string) (*Tag, error) {
	name = normalizedName(name)

	tags, err := AllTags(ctx)
	if err != nil {
		log.Error(err)
		return nil, err
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("no tags found on server")
	}

	if exact, ok := lo.Find(tags, func(t *Tag) bool {
		return normalizedName(t.Name) == name
	}); ok {
		return exact, nil
	}

	closest := lo.MinBy(tags, func(a, b *Tag) bool {
		return levenshtein.Distance(
			name,
			normalizedName(a.Name),
		) < levenshtein.Distance(
			name,
			normalizedName(b.Name),
		)
	})

	log.Info("found closest tag match: " + closest.Name)
	return closest, nil
}

// ResolveTagNames maps a list of tag names onto server tag ids, skipping names that resolve to nothing.
func ResolveTagNames(ctx context.Context, names []string) []string {
	var ids []string
	for _, name := range names {
		tag, err := FindClosestTag(ctx, name)
		if err != nil {
			continue
		}
		ids = append(ids, tag.ID)
	}
	return ids
}
