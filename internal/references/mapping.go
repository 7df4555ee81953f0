package references

// Target records the identifier and URL of an entity created on the target system.
type Target struct {
	ID  int
	URL string
}

// Entry pairs a source entity number with its created target counterpart.
type Entry struct {
	Number int
	Target Target
}

// Mapping is an insertion-ordered, append-only table from source entity
// numbers to created target entities. Entries are never mutated once written;
// the first write for a number wins.
type Mapping struct {
	orderedNumbers  []int
	targetsByNumber map[int]Target
}

// NewMapping constructs an empty mapping table.
func NewMapping() *Mapping {
	return &Mapping{
		targetsByNumber: map[int]Target{},
	}
}

// Add records the target created for the provided source number. Numbers
// already present keep their original target.
func (mapping *Mapping) Add(sourceNumber int, target Target) {
	if mapping == nil {
		return
	}
	if _, exists := mapping.targetsByNumber[sourceNumber]; exists {
		return
	}
	mapping.orderedNumbers = append(mapping.orderedNumbers, sourceNumber)
	mapping.targetsByNumber[sourceNumber] = target
}

// AddEntries merges a batch of entries preserving their order.
func (mapping *Mapping) AddEntries(entries []Entry) {
	for _, entry := range entries {
		mapping.Add(entry.Number, entry.Target)
	}
}

// Lookup resolves the target recorded for the provided source number.
func (mapping *Mapping) Lookup(sourceNumber int) (Target, bool) {
	if mapping == nil {
		return Target{}, false
	}
	target, exists := mapping.targetsByNumber[sourceNumber]
	return target, exists
}

// Numbers returns the recorded source numbers in insertion order.
func (mapping *Mapping) Numbers() []int {
	if mapping == nil {
		return nil
	}
	return append([]int(nil), mapping.orderedNumbers...)
}

// Len reports the number of recorded entries.
func (mapping *Mapping) Len() int {
	if mapping == nil {
		return 0
	}
	return len(mapping.orderedNumbers)
}
