package catalog

// Provider describes one upstream model provider. The identifier must come
// from the closed registry; everything else is catalog data.
type Provider struct {
	ID              string
	DisplayName     string
	BaseURL         string
	Env             []string // required credential environment variables
	PricingDefaults *Pricing // applied to every model unless overridden
	Extra           map[string]any
}

// Model is one catalog entry, unique by (provider, id).
type Model struct {
	ID           string
	Provider     string
	DisplayName  string
	Family       string
	ReleaseDate  string // ISO-8601
	Capabilities Capabilities
	Modalities   Modalities
	Limits       Limits
	Cost         *Cost
	Pricing      *Pricing
	Lifecycle    *Lifecycle
	Deprecated   bool
	Retired      bool
	Aliases      []string
	Extra        map[string]any
}

// Capability is a single capability toggle with optional sub-flags
// (e.g. tool_use with a "parallel" flag).
type Capability struct {
	Enabled bool
	Flags   map[string]bool
}

// Capabilities holds the fixed capability set.
type Capabilities struct {
	Chat             Capability
	ToolUse          Capability
	StructuredOutput Capability
	Streaming        Capability
	Reasoning        Capability
	Embeddings       Capability
}

// lookup maps a capability name to its field.
func (c *Capabilities) lookup(name string) *Capability {
	switch name {
	case "chat":
		return &c.Chat
	case "tool_use":
		return &c.ToolUse
	case "structured_output":
		return &c.StructuredOutput
	case "streaming":
		return &c.Streaming
	case "reasoning":
		return &c.Reasoning
	case "embeddings":
		return &c.Embeddings
	}
	return nil
}

// CapabilityNames lists the recognized capability field names.
func CapabilityNames() []string {
	return []string{"chat", "tool_use", "structured_output", "streaming", "reasoning", "embeddings"}
}

// Has reports whether a capability (or a dotted sub-flag, e.g.
// "tool_use.parallel") is enabled.
func (c *Capabilities) Has(name string) bool {
	base, flag := name, ""
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			base, flag = name[:i], name[i+1:]
			break
		}
	}
	cp := c.lookup(base)
	if cp == nil || !cp.Enabled {
		return false
	}
	if flag == "" {
		return true
	}
	return cp.Flags[flag]
}

// Modalities lists input/output media kinds.
type Modalities struct {
	Input  []string
	Output []string
}

// Limits holds token ceilings. Zero means unspecified.
type Limits struct {
	Context int
	Output  int
}

// Cost is the legacy flat per-million-token rate table. Nil fields mean the
// rate is not published, not that it is zero.
type Cost struct {
	Input      *float64
	Output     *float64
	CacheRead  *float64
	CacheWrite *float64
	Reasoning  *float64
}

// Merge strategies for combining model pricing with provider defaults.
const (
	MergeByID    = "merge_by_id"
	MergeReplace = "replace"
)

// Pricing is an itemized price list.
type Pricing struct {
	Currency   string
	Merge      string // MergeByID (default) or MergeReplace
	Components []PricingComponent
}

// Component returns the component with the given id, or nil.
func (p *Pricing) Component(id string) *PricingComponent {
	for i := range p.Components {
		if p.Components[i].ID == id {
			return &p.Components[i]
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *Pricing) Clone() *Pricing {
	if p == nil {
		return nil
	}
	out := &Pricing{Currency: p.Currency, Merge: p.Merge}
	out.Components = append(out.Components, p.Components...)
	return out
}

// Component kinds.
const (
	KindToken   = "token"
	KindTool    = "tool"
	KindImage   = "image"
	KindStorage = "storage"
	KindRequest = "request"
	KindOther   = "other"
)

// ComponentKinds lists the allowed component kinds.
var ComponentKinds = []string{KindToken, KindTool, KindImage, KindStorage, KindRequest, KindOther}

// ComponentUnits lists the allowed billing units.
var ComponentUnits = []string{"token", "call", "query", "session", "gb_day", "image", "source", "other"}

// PricingComponent is one billable line item. ID is conventionally
// "<kind>.<subkind>", e.g. "token.input" or "tool.web_search".
type PricingComponent struct {
	ID    string
	Kind  string
	Unit  string
	Per   float64 // rate denominator, e.g. 1_000_000 tokens
	Rate  float64 // currency units per Per units
	Meter string
	Tool  string
	Size  string
	Notes string
}

// Lifecycle tracks a model's deprecation state. Status accepts any string;
// only the canonical values drive flag synchronization.
type Lifecycle struct {
	Status       string
	DeprecatedAt string
	RetiresAt    string
	RetiredAt    string
	Replacement  string
}

// Canonical lifecycle statuses.
const (
	StatusActive     = "active"
	StatusDeprecated = "deprecated"
	StatusRetired    = "retired"
)
