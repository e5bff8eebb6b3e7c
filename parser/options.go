package parser

import "github.com/tliron/commonlog"

type options struct {
	limit     int
	lookahead bool
	log       commonlog.Logger
}

func defaultOptions() options {
	return options{
		lookahead: true,
		log:       commonlog.GetLogger("gll.parser"),
	}
}

// Option configures a parse.
type Option func(*options)

// WithDescriptorLimit stops the parse with a Timeout error after n
// descriptors have been processed. Zero or less means no limit.
func WithDescriptorLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// WithLookahead toggles selection of alternates by their FIRST/FOLLOW
// sets. Disabling it explores every alternate and yields the same forest.
func WithLookahead(on bool) Option {
	return func(o *options) {
		o.lookahead = on
	}
}

func WithLogger(log commonlog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
