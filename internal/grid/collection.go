package grid

// FieldCollection is an ordered set of fields, unique by name. Insertion
// order is preserved for iteration; lookup is by name.
type FieldCollection struct {
	order  []string
	fields map[string]Field
}

// NewFieldCollection builds a collection from the given fields, in order.
// A field whose name is already present replaces the earlier one in place.
func NewFieldCollection(fields ...Field) *FieldCollection {
	c := &FieldCollection{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		c.Set(f)
	}
	return c
}

// Set inserts the field, replacing any field of the same name while keeping
// its original position.
func (c *FieldCollection) Set(f Field) {
	if c.fields == nil {
		c.fields = make(map[string]Field)
	}
	if _, ok := c.fields[f.Name]; !ok {
		c.order = append(c.order, f.Name)
	}
	c.fields[f.Name] = f
}

// Get returns the named field.
func (c *FieldCollection) Get(name string) (Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Len returns the number of fields in the collection.
func (c *FieldCollection) Len() int { return len(c.order) }

// Names returns the field names in insertion order.
func (c *FieldCollection) Names() []string {
	return append([]string(nil), c.order...)
}

// Fields returns the fields in insertion order.
func (c *FieldCollection) Fields() []Field {
	out := make([]Field, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.fields[name])
	}
	return out
}

// Copy returns a deep copy of the collection.
func (c *FieldCollection) Copy() *FieldCollection {
	out := &FieldCollection{fields: make(map[string]Field, len(c.order))}
	for _, name := range c.order {
		out.Set(c.fields[name].Copy())
	}
	return out
}

// Map returns a new collection with fn applied to each field in order.
// The first error stops the traversal and is returned with the field named.
func (c *FieldCollection) Map(fn func(Field) (Field, error)) (*FieldCollection, error) {
	out := &FieldCollection{fields: make(map[string]Field, len(c.order))}
	for _, name := range c.order {
		f, err := fn(c.fields[name])
		if err != nil {
			return nil, err
		}
		out.Set(f)
	}
	return out, nil
}
