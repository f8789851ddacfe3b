package catalog

// Option applies a configuration option to the parser.
type Option func(*parser)

// WithMaxRows caps the number of data rows accepted. Zero or negative
// disables the cap.
func WithMaxRows(n int) Option {
	return func(p *parser) {
		p.maxRows = n
	}
}

// WithName labels the catalog, usually with the uploaded file name.
func WithName(name string) Option {
	return func(p *parser) {
		if name != "" {
			p.name = name
		}
	}
}
