package resolve

// Source forces the origin a schema is fetched from.
type Source string

const (
	// SourceAuto picks the origin from the dependency itself: its schema
	// document, then its endpoint, then its engine key.
	SourceAuto Source = ""
	// SourceEngine always fetches from the schema registry.
	SourceEngine Source = "engine"
)

// ParseSource maps a user supplied override to a Source.
func ParseSource(s string) (Source, error) {
	src := Source(s)
	if err := src.validate(); err != nil {
		return SourceAuto, err
	}
	return src, nil
}

func (s Source) String() string {
	if s == SourceAuto {
		return "auto"
	}
	return string(s)
}

func (s Source) validate() error {
	switch s {
	case SourceAuto, SourceEngine:
		return nil
	default:
		return &UnknownSourceError{Source: string(s)}
	}
}
