package serializer

// Options configure a Factory.
type Options struct {
	registry *Registry
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{registry: NewRegistry()}
}

// WithRegistry sets the registry used by fast serializers.
func WithRegistry(r *Registry) Option {
	return func(o *Options) {
		if r != nil {
			o.registry = r
		}
	}
}
