// Package service implements the MemoryService orchestrator that wires together
// configuration, database, redaction, markdown, embeddings, and search.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/agentvault/vaultmem/internal/config"
	"github.com/agentvault/vaultmem/internal/db"
	"github.com/agentvault/vaultmem/internal/embeddings"
	"github.com/agentvault/vaultmem/internal/errs"
	"github.com/agentvault/vaultmem/internal/markdown"
	"github.com/agentvault/vaultmem/internal/models"
	"github.com/agentvault/vaultmem/internal/redaction"
	"github.com/agentvault/vaultmem/internal/search"
)

// Service orchestrates all memory operations.
type Service struct {
	MemoryHome string
	VaultDir   string
	Config     *config.MemoryConfig

	database       *db.DB
	embProvider    embeddings.Provider
	ignorePatterns []*regexp.Regexp
	vectorsOK      *bool
	mu             sync.Mutex
}

// New initialises a Service rooted at memoryHome.
// If memoryHome is empty it is resolved via config.GetMemoryHome.
func New(memoryHome string) (*Service, error) {
	if memoryHome == "" {
		memoryHome = config.GetMemoryHome()
	}

	vaultDir := filepath.Join(memoryHome, "vault")
	if err := os.MkdirAll(vaultDir, 0o755); err != nil {
		return nil, fmt.Errorf("service.New: create vault dir: %w", err)
	}

	cfg, err := config.Load(filepath.Join(memoryHome, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}

	database, err := db.Open(filepath.Join(memoryHome, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("service.New: open db: %w", err)
	}

	return &Service{
		MemoryHome: memoryHome,
		VaultDir:   vaultDir,
		Config:     cfg,
		database:   database,
	}, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	return s.database.Close()
}

// ---------------------------------------------------------------------------
// Lazy helpers
// ---------------------------------------------------------------------------

// embeddingProvider returns the Provider, lazily initialising it (thread-safe).
func (s *Service) embeddingProvider(_ context.Context) (embeddings.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embProvider != nil {
		return s.embProvider, nil
	}
	ep, err := embeddings.NewProvider(s.Config)
	if err != nil {
		return nil, err
	}
	s.embProvider = ep
	return ep, nil
}

// getIgnorePatterns returns redaction patterns, lazily loaded from .memoryignore.
func (s *Service) getIgnorePatterns() []*regexp.Regexp {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ignorePatterns != nil {
		return s.ignorePatterns
	}
	patterns, err := redaction.LoadMemoryIgnore(filepath.Join(s.MemoryHome, ".memoryignore"))
	if err != nil {
		slog.Warn("failed to load .memoryignore", "err", err)
	}
	if patterns == nil {
		patterns = make([]*regexp.Regexp, 0)
	}
	s.ignorePatterns = patterns
	return patterns
}

// vectorsAvailable checks whether the vec table exists, caching the result.
func (s *Service) vectorsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vectorsOK != nil {
		return *s.vectorsOK
	}
	ok, err := s.database.HasVecTable()
	if err != nil {
		ok = false
	}
	s.vectorsOK = &ok
	return ok
}

// setVectorsOK updates the cached vector-availability flag.
func (s *Service) setVectorsOK(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectorsOK = &ok
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// validCategories lists the categories Save accepts as-is; anything else is
// coerced to "context".
var validCategories = map[string]bool{
	"decision": true, "bug": true, "pattern": true, "learning": true, "context": true,
}

func isValidCategory(c string) bool {
	return validCategories[c]
}

// truncateRunes truncates s to at most maxLen runes.
func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}

// mergeTags combines existing and extra tags, deduplicating case-insensitively.
func mergeTags(existing, extra []string) []string {
	norm := make(map[string]bool, len(existing))
	for _, t := range existing {
		norm[strings.ToLower(t)] = true
	}
	result := make([]string, len(existing))
	copy(result, existing)
	for _, t := range extra {
		if !norm[strings.ToLower(t)] {
			result = append(result, t)
			norm[strings.ToLower(t)] = true
		}
	}
	return result
}

// mergeRelatedFiles combines existing and extra file paths, preserving order
// and deduplicating by exact match (paths are case-sensitive on most
// filesystems, unlike tags).
func mergeRelatedFiles(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, f := range existing {
		seen[f] = true
	}
	result := make([]string, len(existing))
	copy(result, existing)
	for _, f := range extra {
		if !seen[f] {
			result = append(result, f)
			seen[f] = true
		}
	}
	return result
}

// ensureVectors sets up the vec table for the given embedding dimension.
// Returns false when there is a dimension mismatch.
func (s *Service) ensureVectors(embedding []float32) bool {
	if err := s.database.EnsureVecTable(len(embedding)); err != nil {
		if errors.Is(err, db.ErrDimensionMismatch) {
			s.setVectorsOK(false)
		} else {
			slog.Warn("ensureVectors", "err", err)
		}
		return false
	}
	s.setVectorsOK(true)
	return true
}

// detailsWarnings returns quality warnings for memory details.
func detailsWarnings(raw *models.RawMemoryInput) []string {
	var warnings []string
	details := strings.TrimSpace(raw.Details)
	category := strings.ToLower(strings.TrimSpace(raw.Category))

	if (category == "decision" || category == "bug") && details == "" {
		warnings = append(warnings, fmt.Sprintf(
			"'%s' memories should include details. "+
				"Capture context, options considered, decision, tradeoffs, and follow-up.",
			category,
		))
		return warnings
	}

	if details == "" {
		return warnings
	}

	const minChars = 120
	if len(details) < minChars {
		warnings = append(warnings, fmt.Sprintf(
			"Details are brief (%d chars). Aim for at least %d chars for future-session context.",
			len(details), minChars,
		))
	}

	requiredSections := []string{"context", "options considered", "decision", "tradeoffs", "follow-up"}
	detailsLC := strings.ToLower(details)
	var missing []string
	for _, sec := range requiredSections {
		if !strings.Contains(detailsLC, sec) {
			missing = append(missing, sec)
		}
	}
	if len(missing) > 0 {
		warnings = append(warnings, "Details are missing recommended sections: "+strings.Join(missing, ", ")+".")
	}

	return warnings
}

// normalizeSemanticMode coerces mode to one of "auto", "always", "never",
// defaulting unrecognised values to "auto".
func normalizeSemanticMode(mode string) string {
	switch mode {
	case "auto", "always", "never":
		return mode
	default:
		return "auto"
	}
}

var titleStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "and": true, "or": true, "with": true, "is": true,
}

// titleTokens lowercases and splits a title into non-trivial words, dropping
// stopwords and very short tokens.
func titleTokens(title string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,;:!?'\"()[]{}")
		if len(w) < 3 || titleStopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

// sharesToken reports whether two titles share at least one non-trivial word.
func sharesToken(a, b string) bool {
	ta, tb := titleTokens(a), titleTokens(b)
	for w := range ta {
		if tb[w] {
			return true
		}
	}
	return false
}

// tagsIntersect reports whether two tag sets share at least one tag, case-insensitively.
func tagsIntersect(a, b []string) bool {
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[strings.ToLower(t)] = true
	}
	for _, t := range b {
		if seen[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// isDuplicate decides whether a dedup candidate is the same memory as raw,
// per the hybrid probe: cosine similarity above threshold, plus category
// agreement (when both are set) and either a shared title token or tag overlap.
func isDuplicate(raw *models.RawMemoryInput, cosine float64, threshold float64, candTitle, candCategory string, candTags []string) bool {
	if cosine < threshold {
		return false
	}
	if raw.Category != "" && candCategory != "" && !strings.EqualFold(raw.Category, candCategory) {
		return false
	}
	return sharesToken(raw.Title, candTitle) || tagsIntersect(raw.Tags, candTags)
}

// resultsToMaps converts search.Result values into the map format used by
// GetContext/ListRecent so callers receive a uniform shape.
func resultsToMaps(results []search.Result) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, r := range results {
		out[i] = map[string]any{
			"id":          r.ID,
			"title":       r.Title,
			"category":    r.Category,
			"tags":        r.Tags,
			"project":     r.Project,
			"source":      r.Source,
			"created_at":  r.CreatedAt,
			"has_details": r.HasDetails,
			"score":       r.Score,
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

// Save stores a memory with full pipeline: normalize → redact → embed → dedup → markdown → db.
// project is required and must be a non-empty string.
func (s *Service) Save(ctx context.Context, raw *models.RawMemoryInput, project string) (*models.SaveResult, error) { //nolint:gocognit,gocyclo // complexity is inherent to the dedup, redaction, markdown, db, and embedding pipeline
	if project == "" {
		return nil, fmt.Errorf("Save: project name is required")
	}

	today := time.Now().UTC().Format("2006-01-02")
	vaultProjectDir := filepath.Join(s.VaultDir, project)
	if err := os.MkdirAll(vaultProjectDir, 0o755); err != nil {
		return nil, fmt.Errorf("Save: create project dir: %w", err)
	}

	// Normalize: truncate the title and coerce an unrecognised category to
	// "context", so CLI and MCP callers get identical treatment.
	raw.Title = truncateRunes(raw.Title, 60)
	if !isValidCategory(raw.Category) {
		raw.Category = "context"
	}

	warnings := detailsWarnings(raw)

	// Redact all text fields.
	patterns := s.getIgnorePatterns()
	raw.Title = redaction.Redact(raw.Title, patterns)
	raw.What = redaction.Redact(raw.What, patterns)
	if raw.Why != "" {
		raw.Why = redaction.Redact(raw.Why, patterns)
	}
	if raw.Impact != "" {
		raw.Impact = redaction.Redact(raw.Impact, patterns)
	}
	if raw.Details != "" {
		raw.Details = redaction.Redact(raw.Details, patterns)
	}

	tagsStr := strings.Join(raw.Tags, " ")
	embedText := fmt.Sprintf("%s %s %s %s %s", raw.Title, raw.What, raw.Why, raw.Impact, tagsStr)

	// Embed up front so the same vector both drives the dedup probe and,
	// on the non-duplicate path, gets indexed.
	var embedding []float32
	ep, epErr := s.embeddingProvider(ctx)
	if epErr != nil {
		slog.Warn("Save: embedding provider unavailable", "err", epErr)
	} else if ep != nil {
		if v, err := ep.Embed(ctx, embedText); err != nil {
			slog.Warn("Save: embedding failed", "err", err)
		} else {
			embedding = v
		}
	}

	// Dedup probe: vector similarity plus structural agreement.
	if embedding != nil && s.ensureVectors(embedding) { //nolint:nestif // dedup logic requires evaluating multiple conditions across the top candidate
		candidates, err := s.database.VectorSearch(embedding, 1, project, "")
		if err != nil {
			slog.Warn("Save: dedup vector search failed", "err", err)
		}
		if len(candidates) > 0 {
			top := candidates[0]
			cosine, _ := top["score"].(float64)
			candTitle, _ := top["title"].(string)
			candCategory, _ := top["category"].(string)
			var candTags []string
			if tagsRaw, ok := top["tags"].(string); ok && tagsRaw != "" {
				_ = json.Unmarshal([]byte(tagsRaw), &candTags)
			}

			if isDuplicate(raw, cosine, s.Config.Dedup.CosineThreshold, candTitle, candCategory, candTags) {
				existingID, _ := top["id"].(string)
				existingFilePath, _ := top["file_path"].(string)
				mergedTags := mergeTags(candTags, raw.Tags)

				var candFiles []string
				if filesRaw, ok := top["related_files"].(string); ok && filesRaw != "" {
					_ = json.Unmarshal([]byte(filesRaw), &candFiles)
				}
				mergedFiles := mergeRelatedFiles(candFiles, raw.RelatedFiles)

				var detailsAppend string
				if raw.Details != "" {
					detailsAppend = fmt.Sprintf("--- updated %s ---\n%s", today, raw.Details)
				}

				if _, err := s.database.UpdateMemory(
					existingID, raw.What, raw.Why, raw.Impact, mergedTags, mergedFiles, detailsAppend,
				); err != nil {
					return nil, fmt.Errorf("Save: update existing: %w", err)
				}

				if mem, found, dbErr := s.database.GetMemory(existingID); dbErr == nil && found {
					if rowid, ok := mem["rowid"].(int64); ok {
						if err := s.database.InsertVector(rowid, embedding); err != nil {
							slog.Warn("Save: re-embed insert vector", "err", err)
						}
					}
				}

				if err := markdown.AppendSessionUpdate(vaultProjectDir, existingID, raw, today); err != nil {
					slog.Warn("Save: append session update", "err", err)
				}

				return &models.SaveResult{
					ID:       existingID,
					FilePath: existingFilePath,
					Action:   "updated",
					Warnings: warnings,
				}, nil
			}
		}
	}

	// Normal save path: create new memory.
	filePath := filepath.Join(vaultProjectDir, today+"-session.md")
	mem := models.FromRaw(raw, project, filePath)

	if err := markdown.WriteSessionMemory(vaultProjectDir, mem, today, raw.Details); err != nil {
		return nil, fmt.Errorf("Save: write markdown: %w", err)
	}

	rowid, err := s.database.InsertMemory(mem, raw.Details)
	if err != nil {
		return nil, fmt.Errorf("Save: insert memory: %w", err)
	}

	if embedding != nil {
		if !s.ensureVectors(embedding) {
			slog.Warn("Save: vector dimension mismatch — run 'memory reindex' to rebuild")
		} else if err := s.database.InsertVector(rowid, embedding); err != nil {
			slog.Warn("Save: insert vector", "err", err)
		}
	}

	return &models.SaveResult{
		ID:       mem.ID,
		FilePath: filePath,
		Action:   "created",
		Warnings: warnings,
	}, nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Search runs tiered FTS + vector search. semanticMode is one of "auto",
// "always", "never":
//   - "never" skips the vector leg entirely, returning FTS-only results.
//   - "auto" uses vectors when available and silently degrades to FTS-only
//     otherwise.
//   - "always" requires vectors; it returns an errs.VectorsUnavailable error
//     rather than degrading silently.
func (s *Service) Search(ctx context.Context, query string, limit int, project, source, semanticMode string) ([]search.Result, error) {
	switch normalizeSemanticMode(semanticMode) {
	case "never":
		return search.HybridSearch(ctx, s.database, nil, query, limit, project, source)

	case "always":
		if !s.vectorsAvailable() {
			return nil, errs.New(errs.VectorsUnavailable, "Search")
		}
		ep, err := s.embeddingProvider(ctx)
		if err != nil || ep == nil {
			return nil, errs.Wrap(errs.VectorsUnavailable, "Search", err)
		}
		// HybridSearch, not TieredSearch: "always" must consult vectors on
		// every call, never skip the embed+VectorSearch leg because FTS
		// already found enough hits.
		results, err := search.HybridSearch(ctx, s.database, ep, query, limit, project, source)
		if err != nil {
			if errors.Is(err, db.ErrDimensionMismatch) {
				s.setVectorsOK(false)
				return nil, errs.Wrap(errs.VectorsUnavailable, "Search", err)
			}
			return nil, err
		}
		return results, nil

	default: // "auto"
		if s.vectorsAvailable() {
			ep, err := s.embeddingProvider(ctx)
			if err != nil {
				slog.Warn("Search: embedding provider error", "err", err)
				ep = nil
			}
			results, err := search.TieredSearch(ctx, s.database, ep, query, limit, 0, project, source)
			if err == nil {
				return results, nil
			}
			if errors.Is(err, db.ErrDimensionMismatch) {
				s.setVectorsOK(false)
			} else {
				slog.Warn("Search: tiered search error", "err", err)
			}
		}
		// FTS-only fallback.
		return search.TieredSearch(ctx, s.database, nil, query, limit, 0, project, source)
	}
}

// ---------------------------------------------------------------------------
// GetContext
// ---------------------------------------------------------------------------

// GetContext returns memory summaries for context injection along with the
// total count. semanticMode is one of "auto", "always", "never" (defaults to
// the value in Config when empty).
//
//revive:disable:flag-parameter
func (s *Service) GetContext( //nolint:gocognit // complexity from multiple semantic modes
	ctx context.Context,
	limit int,
	project, source, query, semanticMode string,
	topupRecent bool,
) ([]map[string]any, int, error) {
	total, err := s.database.CountMemories(project, source)
	if err != nil {
		return nil, 0, err
	}

	// Normalise semantic mode.
	if semanticMode == "" {
		semanticMode = s.Config.Context.Semantic
	}
	semanticMode = normalizeSemanticMode(semanticMode)

	if query != "" { //nolint:nestif // top-up logic requires checking seen IDs across both search and recent results
		results, err := s.Search(ctx, query, limit, project, source, semanticMode)
		if err != nil {
			return nil, total, err
		}
		out := resultsToMaps(results)

		if topupRecent && len(out) < limit {
			recent, err := s.database.ListRecent(limit, project, source)
			if err == nil {
				seen := make(map[string]bool, len(out))
				for _, r := range out {
					if id, ok := r["id"].(string); ok {
						seen[id] = true
					}
				}
				for _, r := range recent {
					if id, ok := r["id"].(string); ok && seen[id] {
						continue
					}
					out = append(out, r)
					if len(out) >= limit {
						break
					}
				}
			}
		}
		return out, total, nil
	}

	recent, err := s.database.ListRecent(limit, project, source)
	if err != nil {
		return nil, total, err
	}
	return recent, total, nil
}

//revive:enable:flag-parameter

// ---------------------------------------------------------------------------
// GetDetails / Delete / CountMemories
// ---------------------------------------------------------------------------

// GetDetails fetches the extended body for a memory by ID or prefix.
func (s *Service) GetDetails(memoryID string) (*models.MemoryDetail, error) {
	return s.database.GetDetails(memoryID)
}

// Delete removes a memory by ID or prefix.
func (s *Service) Delete(memoryID string) (bool, error) {
	return s.database.DeleteMemory(memoryID)
}

// DeleteByFilter removes all memories older than olderThanDays, optionally
// filtered by project and/or category. Returns the number of deleted records.
func (s *Service) DeleteByFilter(project, category string, olderThanDays int) (int, error) {
	before := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	return s.database.DeleteByFilter(project, category, before)
}

// reembedMemory re-generates and stores the embedding for an existing memory
// identified by id. All errors are logged as warnings and do not block the caller.
func (s *Service) reembedMemory(ctx context.Context, id, embedText string) {
	ep, err := s.embeddingProvider(ctx)
	if err != nil || ep == nil {
		return
	}
	embedding, err := ep.Embed(ctx, embedText)
	if err != nil {
		slog.Warn("reembedMemory: embedding failed", "err", err)
		return
	}
	if !s.ensureVectors(embedding) {
		return
	}
	mem, found, err := s.database.GetMemory(id)
	if err != nil || !found {
		return
	}
	rowid, ok := mem["rowid"].(int64)
	if !ok {
		return
	}
	if err := s.database.InsertVector(rowid, embedding); err != nil {
		slog.Warn("reembedMemory: insert vector", "err", err)
	}
}

// Replace fully overwrites an existing memory's content and re-embeds it.
// Returns a SaveResult with action "replaced", or an error if not found.
func (s *Service) Replace(ctx context.Context, id string, raw *models.RawMemoryInput) (*models.SaveResult, error) {
	raw.Title = truncateRunes(raw.Title, 60)
	if !isValidCategory(raw.Category) {
		raw.Category = "context"
	}

	// Redact all text fields.
	patterns := s.getIgnorePatterns()
	raw.Title = redaction.Redact(raw.Title, patterns)
	raw.What = redaction.Redact(raw.What, patterns)
	if raw.Why != "" {
		raw.Why = redaction.Redact(raw.Why, patterns)
	}
	if raw.Impact != "" {
		raw.Impact = redaction.Redact(raw.Impact, patterns)
	}
	if raw.Details != "" {
		raw.Details = redaction.Redact(raw.Details, patterns)
	}

	found, err := s.database.ReplaceMemory(
		id, raw.Title, raw.What, raw.Why, raw.Impact,
		raw.Tags, raw.RelatedFiles, raw.Category, raw.Details,
	)
	if err != nil {
		return nil, fmt.Errorf("Replace: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("Replace: memory %q not found", id)
	}

	// Re-embed the replaced memory (non-fatal).
	tagsStr := strings.Join(raw.Tags, " ")
	embedText := fmt.Sprintf("%s %s %s %s %s", raw.Title, raw.What, raw.Why, raw.Impact, tagsStr)
	s.reembedMemory(ctx, id, embedText)

	return &models.SaveResult{
		ID:     id,
		Action: "replaced",
	}, nil
}

// CountMemories returns the total count of memories matching optional filters.
func (s *Service) CountMemories(project, source string) (int, error) {
	return s.database.CountMemories(project, source)
}

// ---------------------------------------------------------------------------
// Reindex
// ---------------------------------------------------------------------------

// Reindex rebuilds the vector table using the current embedding provider.
// progress is called with (current, total) after each memory is embedded; may be nil.
func (s *Service) Reindex(ctx context.Context, progress func(current, total int)) (*models.ReindexResult, error) {
	ep, err := s.embeddingProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("Reindex: embedding provider: %w", err)
	}
	if ep == nil {
		return nil, fmt.Errorf("Reindex: no embedding provider configured")
	}

	// Detect dimension from provider.
	probe, err := ep.Embed(ctx, "dimension probe")
	if err != nil {
		return nil, fmt.Errorf("Reindex: probe embed: %w", err)
	}
	dim := len(probe)

	// Rebuild vec table.
	if err := s.database.DropVecTable(); err != nil {
		return nil, fmt.Errorf("Reindex: drop vec table: %w", err)
	}
	if err := s.database.SetEmbeddingDim(dim); err != nil {
		return nil, fmt.Errorf("Reindex: set embedding dim: %w", err)
	}
	if err := s.database.CreateVecTable(dim); err != nil {
		return nil, fmt.Errorf("Reindex: create vec table: %w", err)
	}

	// Re-embed all memories.
	memories, err := s.database.ListAllForReindex()
	if err != nil {
		return nil, fmt.Errorf("Reindex: list memories: %w", err)
	}
	total := len(memories)

	for i, mem := range memories {
		tags := ""
		if tagsRaw, ok := mem["tags"].(string); ok && tagsRaw != "" {
			var tagSlice []string
			if jsonErr := json.Unmarshal([]byte(tagsRaw), &tagSlice); jsonErr == nil {
				tags = strings.Join(tagSlice, " ")
			} else {
				tags = tagsRaw
			}
		}

		title, _ := mem["title"].(string)
		what, _ := mem["what"].(string)
		why, _ := mem["why"].(string)
		impact, _ := mem["impact"].(string)
		embedText := fmt.Sprintf("%s %s %s %s %s", title, what, why, impact, tags)

		embedding, err := ep.Embed(ctx, embedText)
		if err != nil {
			return nil, fmt.Errorf("Reindex: embed memory: %w", err)
		}

		rowid, ok := mem["rowid"].(int64)
		if !ok {
			continue
		}
		if err := s.database.InsertVector(rowid, embedding); err != nil {
			return nil, fmt.Errorf("Reindex: insert vector: %w", err)
		}

		if progress != nil {
			progress(i+1, total)
		}
	}

	s.setVectorsOK(true)
	return &models.ReindexResult{
		Count: total,
		Dim:   dim,
		Model: s.Config.Embedding.Model,
	}, nil
}
