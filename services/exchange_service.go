package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"quizadmin/models"
	"quizadmin/store"
)

type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"

	DefaultImportMaxBytes = 10 << 20
)

// Import failure stages.
const (
	StageFile     = "file"
	StageRead     = "read"
	StageParse    = "parse"
	StageValidate = "validate"
)

// ImportError reports why an import was rejected before anything changed.
type ImportError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("import %s: %s", e.Stage, e.Reason)
}

func (e *ImportError) Unwrap() error { return e.Err }

// ImportFile is an uploaded import document.
type ImportFile struct {
	Name string
	Size int64
	Body io.Reader
}

type ImportResult struct {
	Added         int        `json:"added"`
	Duplicates    int        `json:"duplicates"`
	TotalImported int        `json:"totalImported"`
	Mode          ImportMode `json:"mode"`
}

// ExportDocument is the machine round-trippable export format.
type ExportDocument struct {
	Units    []ExportUnit   `json:"units"`
	Metadata ExportMetadata `json:"metadata"`
}

type ExportUnit struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Type      models.UnitType `json:"type"`
	Icon      string          `json:"icon"`
	Questions []any           `json:"questions"`
}

type ExportMetadata struct {
	AppName        string `json:"appName"`
	ExportDate     string `json:"exportDate"`
	TotalUnits     int    `json:"totalUnits"`
	TotalQuestions int    `json:"totalQuestions"`
}

// ExchangeService exports the collections and reconciles imported documents
// into them.
type ExchangeService struct {
	content   *store.ContentStore
	persister *store.Persister
	backups   *BackupService
	guard     *OperationGuard
	notifier  Notifier
	hub       *Hub
	clock     Clock
	appName   string
	maxBytes  int64
}

type ExchangeConfig struct {
	AppName  string
	MaxBytes int64
}

func NewExchangeService(content *store.ContentStore, persister *store.Persister, backups *BackupService, guard *OperationGuard, notifier Notifier, hub *Hub, clock Clock, cfg ExchangeConfig) *ExchangeService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultImportMaxBytes
	}
	return &ExchangeService{
		content:   content,
		persister: persister,
		backups:   backups,
		guard:     guard,
		notifier:  notifier,
		hub:       hub,
		clock:     clock,
		appName:   cfg.AppName,
		maxBytes:  cfg.MaxBytes,
	}
}

// Export builds the export document from the current units projection.
func (s *ExchangeService) Export() ExportDocument {
	collections := s.content.Snapshot()
	units := s.content.Units()

	doc := ExportDocument{
		Units: make([]ExportUnit, 0, len(units)),
		Metadata: ExportMetadata{
			AppName:        s.appName,
			ExportDate:     s.clock.now().UTC().Format(time.RFC3339Nano),
			TotalUnits:     len(units),
			TotalQuestions: collections.Total(),
		},
	}
	for _, u := range units {
		icon := u.Icon
		if icon == "" {
			icon = models.DefaultUnitIcon
		}
		questions := []any{}
		if k, ok := models.LookupKind(u.Type); ok {
			questions = k.Project(&collections)
		}
		doc.Units = append(doc.Units, ExportUnit{
			ID:        u.ID,
			Title:     u.Title,
			Type:      u.Type,
			Icon:      icon,
			Questions: questions,
		})
	}
	return doc
}

// WriteJSON writes the export document indented by two spaces.
func (s *ExchangeService) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(s.Export())
}

// ExportFileName names an export file, e.g. quiz_export_2024-05-01.json.
func (s *ExchangeService) ExportFileName(ext string) string {
	return fmt.Sprintf("%s_export_%s.%s", s.appName, s.clock.now().UTC().Format("2006-01-02"), ext)
}

// importUnit is an incoming unit once the document passed validation.
type importUnit struct {
	ID        string
	Title     string
	Type      models.UnitType
	Icon      string
	Questions []json.RawMessage
}

// Import reconciles an uploaded document into the collections. Nothing
// changes unless the confirmer approves and the document validates; a
// backup is taken before any mutation.
func (s *ExchangeService) Import(ctx context.Context, file ImportFile, mode ImportMode, confirm Confirmer) (*ImportResult, error) {
	if mode != ImportMerge && mode != ImportReplace {
		return nil, ErrInvalidImportMode
	}
	if err := s.checkFile(file); err != nil {
		return nil, err
	}

	message := "New questions will be merged into the current questions. Continue?"
	if mode == ImportReplace {
		message = "Imported data will replace all current questions. Continue?"
	}
	if !confirm.Confirm(ctx, message) {
		return nil, ErrCancelled
	}

	release, err := s.guard.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.importLocked(ctx, file, mode)
	if err != nil {
		log.Printf("Error importing %s: %v", file.Name, err)
		s.notifier.Notify(ctx, LevelError, "Import failed: "+err.Error())
		return nil, err
	}
	return result, nil
}

func (s *ExchangeService) checkFile(file ImportFile) error {
	if !strings.EqualFold(filepath.Ext(file.Name), ".json") {
		return &ImportError{Stage: StageFile, Reason: "file must be a JSON document"}
	}
	if file.Size > s.maxBytes {
		return &ImportError{Stage: StageFile, Reason: fmt.Sprintf("file is larger than %d bytes", s.maxBytes)}
	}
	return nil
}

func (s *ExchangeService) importLocked(ctx context.Context, file ImportFile, mode ImportMode) (*ImportResult, error) {
	body, err := io.ReadAll(io.LimitReader(file.Body, s.maxBytes+1))
	if err != nil {
		return nil, &ImportError{Stage: StageRead, Reason: "could not read the file", Err: err}
	}
	if int64(len(body)) > s.maxBytes {
		return nil, &ImportError{Stage: StageFile, Reason: fmt.Sprintf("file is larger than %d bytes", s.maxBytes)}
	}

	units, err := parseImport(body)
	if err != nil {
		return nil, err
	}

	if _, err := s.backups.CreateBackup(ctx, fmt.Sprintf("Before import (mode: %s)", mode)); err != nil {
		return nil, fmt.Errorf("backup before import: %w", err)
	}

	result := &ImportResult{Mode: mode}
	previous, err := s.content.Mutate(func(c *models.Collections) error {
		if mode == ImportReplace {
			*c = models.Collections{}
		}
		return reconcile(c, units, mode, result)
	})
	if err != nil {
		return nil, err
	}
	result.TotalImported = s.content.Total()

	if models.ActorFrom(ctx).Can(models.PermBackup) {
		if err := s.persister.SaveCollections(ctx, s.content.Snapshot()); err != nil {
			s.content.Replace(previous)
			return nil, err
		}
		s.notifier.Notify(ctx, LevelSuccess, "Data saved to the database")
	}

	message := "Data imported"
	if mode == ImportMerge {
		message = fmt.Sprintf("Data imported: %d new questions added", result.Added)
		if result.Duplicates > 0 {
			message += fmt.Sprintf(", %d duplicates skipped", result.Duplicates)
		}
	}
	log.Printf("Import %s finished: added=%d duplicates=%d total=%d", mode, result.Added, result.Duplicates, result.TotalImported)
	s.notifier.Notify(ctx, LevelSuccess, message)
	if s.hub != nil {
		s.hub.ContentChanged("import", result.TotalImported)
	}
	return result, nil
}

// reconcile appends every incoming question to the collection of its unit's
// type. In merge mode a question equal to one already present (including one
// added earlier in the same document) is counted as a duplicate instead.
func reconcile(c *models.Collections, units []importUnit, mode ImportMode, result *ImportResult) error {
	for _, u := range units {
		k, ok := models.LookupKind(u.Type)
		if !ok {
			continue
		}
		for i, raw := range u.Questions {
			if isFalsy(raw) {
				continue
			}
			q, err := k.Decode(raw)
			if err != nil {
				log.Printf("warning: skipping question %d of unit %s: %v", i, u.ID, err)
				continue
			}
			if mode == ImportMerge && k.Contains(c, q) {
				result.Duplicates++
				continue
			}
			if err := k.Append(c, q); err != nil {
				return err
			}
			result.Added++
		}
	}
	return nil
}

// isFalsy matches the placeholder entries (null, false, 0, "") some
// exporters leave in question lists.
func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}

func validation(reason string) error {
	return &ImportError{Stage: StageValidate, Reason: reason}
}

// parseImport parses and validates an import document.
func parseImport(body []byte) ([]importUnit, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ImportError{Stage: StageParse, Reason: "file is not valid JSON", Err: err}
	}
	root, ok := doc.(map[string]any)
	if !ok || len(root) == 0 {
		return nil, validation("file is empty or not an object")
	}

	var top struct {
		Units json.RawMessage `json:"units"`
	}
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, &ImportError{Stage: StageParse, Reason: "file is not valid JSON", Err: err}
	}
	var rawUnits []json.RawMessage
	if len(top.Units) == 0 || json.Unmarshal(top.Units, &rawUnits) != nil || rawUnits == nil {
		return nil, validation("document has no units")
	}

	units := make([]importUnit, 0, len(rawUnits))
	for i, raw := range rawUnits {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, validation(fmt.Sprintf("unit %d is not an object", i+1))
		}
		id, title, typ := scalar(fields["id"]), scalar(fields["title"]), scalar(fields["type"])
		if id == "" || title == "" || typ == "" {
			return nil, validation(fmt.Sprintf("unit %d is missing its id, title or type", i+1))
		}
		var questions []json.RawMessage
		if q, ok := fields["questions"]; !ok || json.Unmarshal(q, &questions) != nil || questions == nil {
			return nil, validation(fmt.Sprintf("unit %s has no questions list", id))
		}
		units = append(units, importUnit{
			ID:        id,
			Title:     title,
			Type:      models.UnitType(typ),
			Icon:      scalar(fields["icon"]),
			Questions: questions,
		})
	}
	return units, nil
}

// scalar renders a JSON string or number as text. Anything falsy or
// structured yields "".
func scalar(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return strings.TrimSpace(string(raw))
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}
