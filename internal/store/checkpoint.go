package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vannot/vannot/internal/document"
)

// Checkpoint remembers the document as it was last saved, so a later save
// can tell whether anything changed and which frames are new.
type Checkpoint struct {
	data   []byte
	frames map[int]struct{}
}

// NewCheckpoint records doc as the saved baseline.
func NewCheckpoint(doc *document.Document) (*Checkpoint, error) {
	c := &Checkpoint{}
	if err := c.Reset(doc); err != nil {
		return nil, err
	}
	return c, nil
}

func normalized(doc *document.Document) (*document.Document, []byte, error) {
	clean, err := doc.Clone()
	if err != nil {
		return nil, nil, err
	}
	clean.Normalize()
	data, err := json.Marshal(clean)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal document: %w", err)
	}
	return clean, data, nil
}

// Reset moves the baseline to doc.
func (c *Checkpoint) Reset(doc *document.Document) error {
	clean, data, err := normalized(doc)
	if err != nil {
		return err
	}
	c.data = data
	c.frames = make(map[int]struct{}, len(clean.Frames))
	for _, f := range clean.Frames {
		c.frames[f.Frame] = struct{}{}
	}
	return nil
}

// Changed reports whether doc differs from the baseline once both are
// normalized.
func (c *Checkpoint) Changed(doc *document.Document) (bool, error) {
	_, data, err := normalized(doc)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(data, c.data), nil
}

// NewFrames lists, in ascending order, the annotated frames of doc that the
// baseline did not have.
func (c *Checkpoint) NewFrames(doc *document.Document) []int {
	out := []int{}
	for _, f := range doc.Frames {
		if len(f.Shapes) == 0 {
			continue
		}
		if _, ok := c.frames[f.Frame]; !ok {
			out = append(out, f.Frame)
		}
	}
	sort.Ints(out)
	return out
}
