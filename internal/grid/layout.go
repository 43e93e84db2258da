package grid

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

const (
	// PageID is the settings fragment holding the grid's query state
	PageID = "grid"

	MinWidth    = 90
	MaxFitWidth = 520
	FitSample   = 200
)

var kindWidths = map[schema.Kind]int{
	schema.KindText:      180,
	schema.KindNumber:    110,
	schema.KindDate:      130,
	schema.KindDatetime:  170,
	schema.KindCheckbox:  90,
	schema.KindRating:    120,
	schema.KindSelect:    150,
	schema.KindContacts:  220,
	schema.KindLinks:     220,
	schema.KindDocuments: 220,
}

// DefaultWidth is the width of a column without a stored width
func DefaultWidth(col schema.Column) int {
	if w, ok := kindWidths[col.Kind]; ok {
		return w
	}
	return kindWidths[schema.KindText]
}

// SaveMode selects whether a configuration write goes out now or after the
// debounce delay.
type SaveMode int

const (
	SaveImmediate SaveMode = iota
	SaveDebounced
)

// Change is one configuration write. Update edits the top-level view
// configuration and Pages carries fragments; both go out in the same save.
type Change struct {
	Update func(*models.Settings)
	Pages  map[string]models.PageConfig
}

// Saver persists configuration changes
type Saver interface {
	Save(change Change, mode SaveMode)
}

// Layout owns the column order, visibility, widths, labels and the persisted
// query state of the grid. Visibility is edited as a draft and written only
// on CommitVisibility; every other mutator saves right away.
type Layout struct {
	saver    Saver
	settings models.Settings
	catalog  schema.Catalog

	order           []string
	visible         map[string]bool
	visibilityDirty bool
	widths          map[string]int

	query      Query
	aggregates map[string]Operator
}

// NewLayout builds a layout from the current settings document
func NewLayout(s models.Settings, saver Saver) *Layout {
	l := &Layout{saver: saver}
	l.Reload(s)
	return l
}

// Reload adopts a newly published settings document. A pending visibility
// draft and client-only query state survive.
func (l *Layout) Reload(s models.Settings) {
	l.settings = s.Clone()
	l.catalog = schema.NewCatalog(l.settings)
	l.order = completeOrder(l.settings, l.catalog)

	if !l.visibilityDirty || l.visible == nil {
		l.visible = make(map[string]bool, len(l.order))
		for _, key := range l.order {
			l.visible[key] = !l.settings.IsHidden(key)
		}
		l.visibilityDirty = false
	}
	for _, key := range l.order {
		if _, ok := l.visible[key]; !ok {
			l.visible[key] = !l.settings.IsHidden(key)
		}
	}

	l.widths = make(map[string]int, len(l.settings.ColumnWidths))
	for k, v := range l.settings.ColumnWidths {
		l.widths[k] = v
	}

	search, collapsed := l.query.Search, l.query.Collapsed
	l.query, l.aggregates = decodePage(l.settings.PageConfigs[PageID])
	l.query.Search = search
	l.query.Collapsed = collapsed
}

// completeOrder returns table_columns plus any known column it is missing, so
// the order always covers the visible set.
func completeOrder(s models.Settings, cat schema.Catalog) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(key string) {
		if seen[key] {
			return
		}
		if _, ok := cat.Column(key); !ok {
			return
		}
		seen[key] = true
		out = append(out, key)
	}
	for _, key := range s.TableColumns {
		add(key)
	}
	for _, key := range schema.BuiltinKeys() {
		add(key)
	}
	for _, p := range s.CustomProperties {
		add(p.Key)
	}
	return out
}

// Settings returns the settings document the layout was last loaded from
func (l *Layout) Settings() models.Settings { return l.settings }

// Catalog returns the column catalog
func (l *Layout) Catalog() schema.Catalog { return l.catalog }

// Order returns the full column order, hidden columns included
func (l *Layout) Order() []string { return slices.Clone(l.order) }

// Query returns a copy of the current query state
func (l *Layout) Query() Query {
	q := l.query
	q.Filters = cloneMap(l.query.Filters)
	q.Collapsed = cloneMap(l.query.Collapsed)
	if l.query.Sort != nil {
		s := *l.query.Sort
		q.Sort = &s
	}
	return q
}

// Aggregates returns the operator per column
func (l *Layout) Aggregates() map[string]Operator { return cloneMap(l.aggregates) }

// IsVisible reports the draft visibility of col
func (l *Layout) IsVisible(col string) bool { return l.visible[col] }

// VisibilityDirty reports an uncommitted visibility draft
func (l *Layout) VisibilityDirty() bool { return l.visibilityDirty }

// VisibleKeys returns the visible column keys in order
func (l *Layout) VisibleKeys() []string {
	var out []string
	for _, key := range l.order {
		if l.visible[key] {
			out = append(out, key)
		}
	}
	return out
}

// VisibleColumns resolves VisibleKeys through the catalog
func (l *Layout) VisibleColumns() []schema.Column {
	return l.catalog.Columns(l.VisibleKeys())
}

// Pinned returns the sticky column, the one at order index 0
func (l *Layout) Pinned() string {
	if len(l.order) == 0 {
		return ""
	}
	return l.order[0]
}

// Width returns the stored or default width of col
func (l *Layout) Width(col string) int {
	if w, ok := l.widths[col]; ok && w > 0 {
		return max(MinWidth, w)
	}
	c, _ := l.catalog.Column(col)
	return DefaultWidth(c)
}

// Density returns the table density
func (l *Layout) Density() string {
	if l.settings.TableDensity == "" {
		return models.DensityComfortable
	}
	return l.settings.TableDensity
}

// Reorder splice-moves the column at from to index to and saves the order
func (l *Layout) Reorder(from, to int) error {
	if from < 0 || from >= len(l.order) {
		return fmt.Errorf("invalid source index %d", from)
	}
	if to < 0 || to >= len(l.order) {
		return fmt.Errorf("invalid destination index %d", to)
	}
	if from == to {
		return nil
	}
	l.order = spliceMove(l.order, from, to)
	l.saveOrder()
	return nil
}

// IndexOf returns the order index of col, or -1
func (l *Layout) IndexOf(col string) int {
	return slices.Index(l.order, col)
}

// Pin moves col to index 0
func (l *Layout) Pin(col string) error {
	i := l.IndexOf(col)
	if i < 0 {
		return fmt.Errorf("unknown column %q", col)
	}
	return l.Reorder(i, 0)
}

// Unpin moves the pinned column to index 1
func (l *Layout) Unpin(col string) error {
	if l.Pinned() != col || len(l.order) < 2 {
		return nil
	}
	return l.Reorder(0, 1)
}

func (l *Layout) saveOrder() {
	order := slices.Clone(l.order)
	l.settings.TableColumns = order
	l.saver.Save(Change{Update: func(s *models.Settings) {
		s.TableColumns = slices.Clone(order)
	}}, SaveImmediate)
}

// ResizeBy changes the draft width of col by delta, never below MinWidth. The
// width is only written by CommitResize.
func (l *Layout) ResizeBy(col string, delta int) int {
	w := max(MinWidth, l.Width(col)+delta)
	l.widths[col] = w
	return w
}

// CommitResize persists the current width of col
func (l *Layout) CommitResize(col string) {
	w := l.Width(col)
	l.widths[col] = w
	if l.settings.ColumnWidths == nil {
		l.settings.ColumnWidths = make(map[string]int)
	}
	l.settings.ColumnWidths[col] = w
	l.saver.Save(Change{Update: func(s *models.Settings) {
		if s.ColumnWidths == nil {
			s.ColumnWidths = make(map[string]int)
		}
		s.ColumnWidths[col] = w
	}}, SaveImmediate)
}

// FitToContent sizes col to its longest projection among the first FitSample
// displayed rows and its label, then persists the width.
func (l *Layout) FitToContent(col string, displayed []models.Record) int {
	c, ok := l.catalog.Column(col)
	if !ok {
		return l.Width(col)
	}
	longest := utf8.RuneCountInString(c.Label)
	for i, r := range displayed {
		if i >= FitSample {
			break
		}
		longest = max(longest, utf8.RuneCountInString(c.Project(r)))
	}
	w := int(math.Round(8.2*float64(longest) + 56))
	l.widths[col] = min(MaxFitWidth, max(MinWidth, w))
	l.CommitResize(col)
	return l.widths[col]
}

// ToggleVisibility flips col in the visibility draft. Hiding a column drops
// its filter, sort and grouping at once; the hidden set itself waits for
// CommitVisibility.
func (l *Layout) ToggleVisibility(col string) bool {
	if l.IndexOf(col) < 0 {
		return false
	}
	l.visible[col] = !l.visible[col]
	l.visibilityDirty = true
	if !l.visible[col] && l.query.References(col) {
		l.query.Forget(col)
		l.savePage(SaveImmediate)
	}
	return l.visible[col]
}

// CommitVisibility writes the visibility draft as the hidden column set
func (l *Layout) CommitVisibility() {
	var hidden []string
	for _, key := range l.order {
		if !l.visible[key] {
			hidden = append(hidden, key)
		}
	}
	if hidden == nil {
		hidden = []string{}
	}
	l.settings.HiddenColumns = hidden
	l.visibilityDirty = false
	l.saver.Save(Change{Update: func(s *models.Settings) {
		s.HiddenColumns = slices.Clone(hidden)
	}}, SaveImmediate)
}

// DiscardVisibility drops the visibility draft
func (l *Layout) DiscardVisibility() {
	l.visibilityDirty = false
	l.visible = nil
	l.Reload(l.settings)
}

// SetLabel overrides the label of col; an empty label restores the default.
// Labels are typed, so the save is debounced.
func (l *Layout) SetLabel(col, label string) error {
	if _, ok := l.catalog.Column(col); !ok {
		return api.Invalid(col, "unknown column")
	}
	label = strings.TrimSpace(label)
	if len([]rune(label)) > schema.MaxLabelLength {
		return api.Invalid(col, "label too long (max %d characters)", schema.MaxLabelLength)
	}
	apply := func(s *models.Settings) {
		if s.ColumnLabels == nil {
			s.ColumnLabels = make(map[string]string)
		}
		if label == "" {
			delete(s.ColumnLabels, col)
		} else {
			s.ColumnLabels[col] = label
		}
	}
	apply(&l.settings)
	l.catalog = schema.NewCatalog(l.settings)
	l.saver.Save(Change{Update: apply}, SaveDebounced)
	return nil
}

// SetDensity switches between comfortable and compact rows
func (l *Layout) SetDensity(density string) error {
	if density != models.DensityComfortable && density != models.DensityCompact {
		return api.Invalid("table_density", "unknown density %q", density)
	}
	l.settings.TableDensity = density
	l.saver.Save(Change{Update: func(s *models.Settings) {
		s.TableDensity = density
	}}, SaveImmediate)
	return nil
}

// AddCustomProperty creates a column and makes it visible at the end of the
// order. Property list, order and visibility go out in one write.
func (l *Layout) AddCustomProperty(name string, kind schema.Kind, options []models.Option) (schema.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schema.Column{}, api.Invalid("name", "property name cannot be empty")
	}
	if len([]rune(name)) > schema.MaxLabelLength {
		return schema.Column{}, api.Invalid("name", "property name too long (max %d characters)", schema.MaxLabelLength)
	}
	if !kind.Valid() || kind == schema.KindDatetime {
		return schema.Column{}, api.Invalid("type", "unsupported property type %q", kind)
	}
	var opts []models.Option
	if kind.IsSelectLike() {
		for _, o := range options {
			var err error
			if opts, err = schema.AddOption(opts, o.Label, o.Color); err != nil {
				return schema.Column{}, err
			}
		}
	}

	prop := models.CustomProperty{
		Key:     schema.NewPropertyKey(),
		Name:    name,
		Type:    models.PropertyType(kind),
		Options: opts,
	}
	apply := func(s *models.Settings) {
		s.CustomProperties = append(s.CustomProperties, prop)
		if !slices.Contains(s.TableColumns, prop.Key) {
			s.TableColumns = append(s.TableColumns, prop.Key)
		}
		s.HiddenColumns = slices.DeleteFunc(s.HiddenColumns, func(k string) bool { return k == prop.Key })
	}
	apply(&l.settings)
	l.catalog = schema.NewCatalog(l.settings)
	l.order = append(l.order, prop.Key)
	l.visible[prop.Key] = true
	l.saver.Save(Change{Update: apply}, SaveImmediate)

	col, _ := l.catalog.Column(prop.Key)
	return col, nil
}

// RemoveCustomProperty deletes a custom column together with its width,
// label, aggregate and every query reference. Record values are orphaned.
func (l *Layout) RemoveCustomProperty(key string) error {
	col, ok := l.catalog.Column(key)
	if !ok || !col.Custom {
		return api.Invalid(key, "not a custom property")
	}
	apply := func(s *models.Settings) {
		s.CustomProperties = slices.DeleteFunc(s.CustomProperties, func(p models.CustomProperty) bool { return p.Key == key })
		s.TableColumns = slices.DeleteFunc(s.TableColumns, func(k string) bool { return k == key })
		s.HiddenColumns = slices.DeleteFunc(s.HiddenColumns, func(k string) bool { return k == key })
		delete(s.ColumnWidths, key)
		delete(s.ColumnLabels, key)
	}
	apply(&l.settings)
	l.catalog = schema.NewCatalog(l.settings)
	l.order = slices.DeleteFunc(l.order, func(k string) bool { return k == key })
	delete(l.visible, key)
	delete(l.widths, key)
	l.query.Forget(key)
	delete(l.aggregates, key)

	l.saver.Save(Change{Update: apply, Pages: map[string]models.PageConfig{PageID: l.encodePage()}}, SaveImmediate)
	return nil
}

// RenameCustomProperty changes a custom property's name
func (l *Layout) RenameCustomProperty(key, name string) error {
	col, ok := l.catalog.Column(key)
	if !ok || !col.Custom {
		return api.Invalid(key, "not a custom property")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return api.Invalid("name", "property name cannot be empty")
	}
	apply := func(s *models.Settings) {
		for i := range s.CustomProperties {
			if s.CustomProperties[i].Key == key {
				s.CustomProperties[i].Name = name
			}
		}
	}
	apply(&l.settings)
	l.catalog = schema.NewCatalog(l.settings)
	l.saver.Save(Change{Update: apply}, SaveDebounced)
	return nil
}

// SetSearch sets the free-text search. It is not persisted.
func (l *Layout) SetSearch(text string) {
	l.query.Search = text
}

// SetFilter sets the needle of a column filter; empty clears it
func (l *Layout) SetFilter(col, needle string) {
	if l.query.Filters == nil {
		l.query.Filters = make(map[string]string)
	}
	if strings.TrimSpace(needle) == "" {
		delete(l.query.Filters, col)
	} else {
		l.query.Filters[col] = needle
	}
	l.savePage(SaveDebounced)
}

// ClearFilters drops every column filter
func (l *Layout) ClearFilters() {
	l.query.Filters = nil
	l.savePage(SaveImmediate)
}

// SetSort makes col the single active sort
func (l *Layout) SetSort(col string, dir Direction) {
	if dir != Desc {
		dir = Asc
	}
	l.query.Sort = &SortSpec{Column: col, Direction: dir}
	l.savePage(SaveImmediate)
}

// ClearSort removes the active sort
func (l *Layout) ClearSort() {
	l.query.Sort = nil
	l.savePage(SaveImmediate)
}

// SetGroupBy groups by col; empty ungroups
func (l *Layout) SetGroupBy(col string) {
	l.query.GroupBy = col
	l.query.Collapsed = nil
	l.savePage(SaveImmediate)
}

// ToggleGroup collapses or expands a group. Collapse state is client only.
func (l *Layout) ToggleGroup(key string) {
	if l.query.Collapsed == nil {
		l.query.Collapsed = make(map[string]bool)
	}
	l.query.Collapsed[key] = !l.query.Collapsed[key]
}

// SetAggregate sets the footer operator of col
func (l *Layout) SetAggregate(col string, op Operator) error {
	c, ok := l.catalog.Column(col)
	if !ok {
		return api.Invalid(col, "unknown column")
	}
	if op != OpNone && !op.Applicable(c.Kind) {
		return api.Invalid(col, "%s does not apply to %s columns", op, c.Kind)
	}
	if l.aggregates == nil {
		l.aggregates = make(map[string]Operator)
	}
	if op == OpNone {
		delete(l.aggregates, col)
	} else {
		l.aggregates[col] = op
	}
	l.savePage(SaveImmediate)
	return nil
}

// ShowAggregates reports whether the footer row is shown
func (l *Layout) ShowAggregates() bool {
	return ShowAggregates(l.VisibleKeys(), l.aggregates)
}

func (l *Layout) savePage(mode SaveMode) {
	l.saver.Save(Change{Pages: map[string]models.PageConfig{PageID: l.encodePage()}}, mode)
}

func (l *Layout) encodePage() models.PageConfig {
	page := models.PageConfig{}
	if prev, ok := l.settings.PageConfigs[PageID]; ok {
		page = prev.Clone()
	}
	delete(page, models.UpdatedAtKey)

	filters := make(map[string]any, len(l.query.Filters))
	for k, v := range l.query.Filters {
		filters[k] = v
	}
	page["filters"] = filters
	if l.query.Sort != nil {
		page["sort"] = map[string]any{"column": l.query.Sort.Column, "direction": string(l.query.Sort.Direction)}
	} else {
		delete(page, "sort")
	}
	page["group_by"] = l.query.GroupBy
	aggs := make(map[string]any, len(l.aggregates))
	for k, v := range l.aggregates {
		aggs[k] = string(v)
	}
	page["aggregates"] = aggs

	if l.settings.PageConfigs == nil {
		l.settings.PageConfigs = make(map[string]models.PageConfig)
	}
	l.settings.PageConfigs[PageID] = page
	return page
}

func decodePage(page models.PageConfig) (Query, map[string]Operator) {
	q := Query{Filters: map[string]string{}}
	aggs := map[string]Operator{}
	if page == nil {
		return q, aggs
	}
	if filters, ok := page["filters"].(map[string]any); ok {
		for k, v := range filters {
			if s, ok := v.(string); ok && s != "" {
				q.Filters[k] = s
			}
		}
	}
	if sort, ok := page["sort"].(map[string]any); ok {
		col, _ := sort["column"].(string)
		dir, _ := sort["direction"].(string)
		if col != "" {
			q.Sort = &SortSpec{Column: col, Direction: Direction(dir)}
			if q.Sort.Direction != Desc {
				q.Sort.Direction = Asc
			}
		}
	}
	q.GroupBy, _ = page["group_by"].(string)
	if raw, ok := page["aggregates"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok && s != "" && Operator(s) != OpNone {
				aggs[k] = Operator(s)
			}
		}
	}
	return q, aggs
}

func spliceMove[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
