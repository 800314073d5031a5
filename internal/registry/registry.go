// Package registry keeps the ordered set of parser definitions: custom
// entries first, then the built-ins. Custom entries are persisted as one
// JSON list through a repository.KVStore.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/parsers"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/repository"
)

// Action tells an upsert caller whether an entry was created or replaced.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
)

// Outcome reports the effect of a successful mutation.
type Outcome struct {
	Action  Action `json:"action,omitempty"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type storedParser struct {
	Name     string   `json:"name"`
	Matches  []string `json:"matches"`
	Metadata string   `json:"metadata,omitempty"`
	Table    string   `json:"table,omitempty"`
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	store    repository.KVStore
	builtins []parsers.Definition
	custom   []parsers.Definition
	logger   *slog.Logger
}

// New loads the persisted custom list from store. A missing, unreadable or
// malformed list is logged and treated as empty.
func New(ctx context.Context, store repository.KVStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		store:    store,
		builtins: parsers.BuiltIn(),
		logger:   logger,
	}
	r.custom = r.load(ctx)
	return r
}

func (r *Registry) load(ctx context.Context) []parsers.Definition {
	raw, ok, err := r.store.Get(ctx, constants.CustomParsersKey)
	if err != nil {
		r.logger.Error("could not load custom parsers", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	if err := ValidateJSONAgainstSchema(storedListSchema, raw); err != nil {
		r.logger.Error("stored custom parsers are invalid, ignoring", "error", err)
		return nil
	}
	var stored []storedParser
	if err := json.Unmarshal(raw, &stored); err != nil {
		r.logger.Error("stored custom parsers are invalid, ignoring", "error", err)
		return nil
	}
	defs := make([]parsers.Definition, 0, len(stored))
	for _, sp := range stored {
		defs = append(defs, parsers.Definition{
			Name:     sp.Name,
			Matches:  sp.Matches,
			Metadata: sp.Metadata,
			Table:    sp.Table,
			Custom:   true,
		})
	}
	r.logger.Info("loaded custom parsers", "count", len(defs))
	return defs
}

func (r *Registry) persist(ctx context.Context, defs []parsers.Definition) error {
	stored := make([]storedParser, 0, len(defs))
	for _, d := range defs {
		stored = append(stored, storedParser{Name: d.Name, Matches: d.Matches, Metadata: d.Metadata, Table: d.Table})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal custom parsers: %w", err)
	}
	if err := r.store.Put(ctx, constants.CustomParsersKey, raw); err != nil {
		r.logger.Error("failed to persist custom parsers", "error", err)
		return common.NewAppError("STORE_ERROR", "Could not save custom parsers.", err)
	}
	return nil
}

// All returns every definition in classification order: custom, then built-in.
func (r *Registry) All() []parsers.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]parsers.Definition, 0, len(r.custom)+len(r.builtins))
	out = append(out, r.custom...)
	return append(out, r.builtins...)
}

// Custom returns the user-defined definitions in stored order.
func (r *Registry) Custom() []parsers.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]parsers.Definition(nil), r.custom...)
}

// Resolve finds a definition by name for forced classification. Custom
// entries shadow built-ins; display names with the custom suffix match too.
func (r *Registry) Resolve(name string) (parsers.Definition, bool) {
	name = strings.TrimSpace(name)
	for _, d := range r.All() {
		if d.Name == name || d.DisplayName() == name {
			return d, true
		}
	}
	return parsers.Definition{}, false
}

// Upsert validates d, then replaces the custom entry with the same name or
// appends it. Nothing changes when validation or persistence fails.
func (r *Registry) Upsert(ctx context.Context, d parsers.Definition) (Outcome, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Matches = normalizeMatches(d.Matches)
	d.Custom = true
	d.Extract = nil
	if err := d.Validate(); err != nil {
		return Outcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := append([]parsers.Definition(nil), r.custom...)
	out := Outcome{Action: ActionAdded, Index: len(next)}
	for i := range next {
		if next[i].Name == d.Name {
			next[i] = d
			out = Outcome{Action: ActionUpdated, Index: i}
			break
		}
	}
	if out.Action == ActionAdded {
		next = append(next, d)
	}
	if err := r.persist(ctx, next); err != nil {
		return Outcome{}, err
	}
	r.custom = next
	out.Message = fmt.Sprintf("Custom parser \"%s\" successfully %s!", d.Name, out.Action)
	r.logger.Info("registry.upsert", "name", d.Name, "action", out.Action, "index", out.Index)
	return out, nil
}

// Remove deletes the custom entry at index.
func (r *Registry) Remove(ctx context.Context, index int) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.custom) {
		return Outcome{}, common.NewAppError("NOT_FOUND", fmt.Sprintf("No custom parser at index %d.", index), common.ErrNotFound)
	}
	removed := r.custom[index]
	next := make([]parsers.Definition, 0, len(r.custom)-1)
	next = append(next, r.custom[:index]...)
	next = append(next, r.custom[index+1:]...)
	if err := r.persist(ctx, next); err != nil {
		return Outcome{}, err
	}
	r.custom = next
	r.logger.Info("registry.remove", "name", removed.Name, "index", index)
	return Outcome{Index: index, Message: fmt.Sprintf("Custom parser \"%s\" removed.", removed.Name)}, nil
}

// ReplaceAll swaps the whole custom list. Every definition is validated
// first; one invalid entry rejects the call.
func (r *Registry) ReplaceAll(ctx context.Context, defs []parsers.Definition) (Outcome, error) {
	next := make([]parsers.Definition, 0, len(defs))
	for _, d := range defs {
		d.Name = strings.TrimSpace(d.Name)
		d.Matches = normalizeMatches(d.Matches)
		d.Custom = true
		d.Extract = nil
		if err := d.Validate(); err != nil {
			return Outcome{}, fmt.Errorf("parser %q: %w", d.Name, err)
		}
		next = append(next, d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.persist(ctx, next); err != nil {
		return Outcome{}, err
	}
	r.custom = next
	r.logger.Info("registry.replace", "count", len(next))
	return Outcome{Index: len(next), Message: fmt.Sprintf("Updated %d custom parsers.", len(next))}, nil
}

// ImportTemplates parses text blocks and replaces the custom list with the
// valid ones. Blocks that fail to parse or compile are returned as skipped.
func (r *Registry) ImportTemplates(ctx context.Context, raw string) (Outcome, []error, error) {
	defs, skipped := parsers.ParseTemplates(raw)
	valid := make([]parsers.Definition, 0, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			skipped = append(skipped, fmt.Errorf("parser %q: %w", d.Name, err))
			continue
		}
		valid = append(valid, d)
	}
	out, err := r.ReplaceAll(ctx, valid)
	for _, e := range skipped {
		r.logger.Warn("registry.import.skip", "reason", e)
	}
	return out, skipped, err
}

// ExportTemplates renders the custom list as text blocks.
func (r *Registry) ExportTemplates() string {
	return parsers.FormatTemplates(r.Custom())
}

func normalizeMatches(in []string) []string {
	return parsers.SplitMatches(strings.Join(in, ","))
}
