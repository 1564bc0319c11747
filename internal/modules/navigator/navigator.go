package navigator

import (
	"strconv"
	"strings"

	"github.com/threadsync/core/internal/models"
)

// ViewMode is what the drill-down dropdown currently shows. It is a pure
// function of the navigation stack's tail.
type ViewMode string

const (
	ViewFields       ViewMode = "fields"
	ViewNestedFields ViewMode = "nestedFields"
	ViewBlocks       ViewMode = "blocks"
	ViewLocales      ViewMode = "locales"
)

// FieldInfo describes a selectable field during drill-down.
type FieldInfo struct {
	APIKey     string   `json:"apiKey"`
	Label      string   `json:"label"`
	Localized  bool     `json:"localized"`
	Locales    []string `json:"locales,omitempty"`
	FieldType  string   `json:"fieldType"`
	EditorType string   `json:"editorType,omitempty"`
}

// IsBlockContainer reports whether the field holds nested block instances
// and therefore needs further drill-down.
func (f FieldInfo) IsBlockContainer() bool {
	return f.FieldType == models.FieldTypeSingleBlock || f.FieldType == models.FieldTypeModularContent
}

// BlockInfo describes one block instance inside a container field.
type BlockInfo struct {
	Index          int    `json:"index"`
	BlockModelID   string `json:"blockModelId"`
	BlockModelName string `json:"blockModelName"`
}

type stepKind int

const (
	stepField stepKind = iota
	stepLocale
	stepBlock
)

// step is one entry of the navigation stack.
type step struct {
	kind   stepKind
	field  FieldInfo
	locale string
	block  BlockInfo
}

// Resolution is the outcome of a completed drill-down: the structural field
// path (dot-delimited, with block indices) plus the selected locale.
type Resolution struct {
	FieldPath string
	Locale    string
	Field     FieldInfo
}

// BlockLister lists the block instances of a container field, scoped to the
// path prefix accumulated so far and the selected locale.
type BlockLister func(pathPrefix, locale string, field FieldInfo) ([]BlockInfo, error)

// Navigator is the stack-based drill-down state machine that resolves a
// field mention through nested block containers and locale variants.
type Navigator struct {
	stack      []step
	listBlocks BlockLister
	resolve    func(Resolution)
}

// New builds a navigator. resolve is invoked once a concrete leaf field has
// been reached; listBlocks feeds block-selection steps.
func New(listBlocks BlockLister, resolve func(Resolution)) *Navigator {
	return &Navigator{listBlocks: listBlocks, resolve: resolve}
}

// Depth returns the navigation stack depth.
func (n *Navigator) Depth() int { return len(n.stack) }

// Mode derives the current view from the stack's tail.
func (n *Navigator) Mode() ViewMode {
	if len(n.stack) == 0 {
		return ViewFields
	}
	tail := n.stack[len(n.stack)-1]
	switch tail.kind {
	case stepBlock:
		return ViewNestedFields
	case stepLocale:
		if f, ok := n.governingField(); ok && f.IsBlockContainer() {
			return ViewBlocks
		}
		return ViewFields
	case stepField:
		if tail.field.Localized && len(tail.field.Locales) > 1 {
			return ViewLocales
		}
		if tail.field.IsBlockContainer() {
			return ViewBlocks
		}
	}
	return ViewFields
}

// SelectField handles activation of a field in the current list. Leaf
// fields complete the drill-down (unless a locale still has to be picked);
// container fields push a step and re-render.
func (n *Navigator) SelectField(f FieldInfo) {
	needsLocale := f.Localized && len(f.Locales) > 1 && n.selectedLocale() == ""

	if !f.IsBlockContainer() && !needsLocale {
		locale := n.selectedLocale()
		if locale == "" && f.Localized && len(f.Locales) == 1 {
			locale = f.Locales[0]
		}
		n.finish(f, f.APIKey, locale)
		return
	}

	n.stack = append(n.stack, step{kind: stepField, field: f})
	if f.IsBlockContainer() && !needsLocale {
		n.maybeAutoAdvance()
	}
}

// SelectLocale handles activation of a locale variant for the field on top
// of the stack. For leaf fields this completes the drill-down; for block
// containers it advances to block selection.
func (n *Navigator) SelectLocale(code string) {
	f, ok := n.tailField()
	if !ok {
		return
	}
	n.stack = append(n.stack, step{kind: stepLocale, locale: code})

	if f.IsBlockContainer() {
		n.maybeAutoAdvance()
		return
	}

	// locale was the last open choice for a leaf field
	n.stack = n.stack[:len(n.stack)-2]
	n.finish(f, f.APIKey, code)
}

// SelectBlock handles activation of a block instance.
func (n *Navigator) SelectBlock(b BlockInfo) {
	n.stack = append(n.stack, step{kind: stepBlock, block: b})
}

// Back pops one step. Backing out of an empty stack is a no-op.
func (n *Navigator) Back() {
	if len(n.stack) == 0 {
		return
	}
	n.stack = n.stack[:len(n.stack)-1]
}

// Blocks lists the block instances for the current block-selection view.
func (n *Navigator) Blocks() ([]BlockInfo, error) {
	if n.Mode() != ViewBlocks || n.listBlocks == nil {
		return nil, nil
	}
	f, _ := n.governingField()
	return n.listBlocks(n.pathPrefix(), n.selectedLocale(), f)
}

// finish composes the final field path, invokes the resolution callback and
// clears the stack.
func (n *Navigator) finish(f FieldInfo, leafKey, locale string) {
	path := n.pathPrefix()
	if path == "" {
		path = leafKey
	} else {
		path += models.FieldPathSeparator + leafKey
	}
	if n.resolve != nil {
		n.resolve(Resolution{FieldPath: path, Locale: locale, Field: f})
	}
	n.stack = nil
}

// pathPrefix joins the api keys and block indices accumulated on the
// stack. Locale steps contribute no path segment.
func (n *Navigator) pathPrefix() string {
	parts := make([]string, 0, len(n.stack))
	for _, s := range n.stack {
		switch s.kind {
		case stepField:
			parts = append(parts, s.field.APIKey)
		case stepBlock:
			parts = append(parts, strconv.Itoa(s.block.Index))
		}
	}
	return strings.Join(parts, models.FieldPathSeparator)
}

// selectedLocale returns the most recent locale step's code.
func (n *Navigator) selectedLocale() string {
	for i := len(n.stack) - 1; i >= 0; i-- {
		if n.stack[i].kind == stepLocale {
			return n.stack[i].locale
		}
	}
	return ""
}

// governingField returns the nearest field step from the tail down.
func (n *Navigator) governingField() (FieldInfo, bool) {
	for i := len(n.stack) - 1; i >= 0; i-- {
		if n.stack[i].kind == stepField {
			return n.stack[i].field, true
		}
	}
	return FieldInfo{}, false
}

// tailField returns the field step on top of the stack, if any.
func (n *Navigator) tailField() (FieldInfo, bool) {
	if len(n.stack) == 0 {
		return FieldInfo{}, false
	}
	tail := n.stack[len(n.stack)-1]
	if tail.kind != stepField {
		return FieldInfo{}, false
	}
	return tail.field, true
}

// maybeAutoAdvance skips the block-selection step for a single_block
// container that resolves to exactly one instance. No user action is
// required there.
func (n *Navigator) maybeAutoAdvance() {
	if n.Mode() != ViewBlocks || n.listBlocks == nil {
		return
	}
	f, ok := n.governingField()
	if !ok || f.FieldType != models.FieldTypeSingleBlock {
		return
	}
	blocks, err := n.listBlocks(n.pathPrefix(), n.selectedLocale(), f)
	if err != nil || len(blocks) != 1 {
		return
	}
	n.SelectBlock(blocks[0])
}
