package query

// Complexity grades a query by length, conjunction density and ambiguity.
type Complexity string

// Complexity levels.
const (
	VerySimple Complexity = "very_simple"
	Simple     Complexity = "simple"
	Medium     Complexity = "medium"
	Complex    Complexity = "complex"
	Ambiguous  Complexity = "ambiguous"
)

// Register is the detected language register of a query.
type Register string

// Language registers.
const (
	English            Register = "english"
	EgyptianColloquial Register = "egyptian_colloquial"
	FormalArabic       Register = "formal_arabic"
	MixedArabic        Register = "mixed_arabic"
)

// Primary intent labels. The analyzer reads the matching patterns from the
// rule set; the labels that change scoring downstream are named here.
const (
	IntentDefinition = "تعريف"
	IntentLocation   = "موقع"
	IntentQuantity   = "كمية"
	IntentProcedure  = "طريقة"
	IntentYesNo      = "سؤال_نعم_لا"
	IntentSearch     = "بحث_عن_نشاط"
	IntentLicensing  = "بحث_عن_تراخيص"
	IntentZone       = "بحث_عن_منطقة"
	IntentIncentive  = "بحث_عن_حوافز"
	IntentCost       = "تكلفة"
	IntentDuration   = "مدة"
	IntentGeneral    = "general"
)

// Secondary intent labels.
const (
	SecondaryArea         = "معرفة_المساحة"
	SecondaryRequirements = "معرفة_المتطلبات"
	SecondaryAuthority    = "معرفة_الجهة"
	SecondaryNone         = "none"
)

// DefaultConfidence is reported for the general intent.
const DefaultConfidence = 0.5

// EntityType classifies an extracted entity.
type EntityType string

// Entity types. Learned patterns use Activity, Area, Decision or General.
const (
	EntityDecision       EntityType = "decision"
	EntityLaw            EntityType = "law"
	EntityPercentage     EntityType = "percentage"
	EntityGovernorate    EntityType = "governorate"
	EntityIndustrialArea EntityType = "industrial_area"
	EntityActivity       EntityType = "activity"
	EntityArea           EntityType = "area"
	EntityGeneral        EntityType = "general"
)

// Intent is the classified purpose of a query.
type Intent struct {
	Primary    string  `json:"primary"`
	Secondary  string  `json:"secondary"`
	Confidence float64 `json:"confidence"`
}

// Entity is a typed, weighted domain mention.
type Entity struct {
	Type            EntityType `json:"type"`
	Value           string     `json:"value"`
	Text            string     `json:"text"`
	Category        string     `json:"category,omitempty"`
	Weight          float64    `json:"weight"`
	Learned         bool       `json:"learned,omitempty"`
	Colloquial      bool       `json:"colloquial,omitempty"`
	IntentRelevance float64    `json:"intent_relevance"`
}

// LearnedPattern is an entity keyword harvested from successful results.
type LearnedPattern struct {
	Keyword string     `json:"keyword"`
	Type    EntityType `json:"type"`
	Count   int        `json:"count"`
}

// Analysis is the transient value object built per search call.
type Analysis struct {
	Raw         string     `json:"query"`
	Normalized  string     `json:"normalized"`
	Words       []string   `json:"-"`
	Keywords    []string   `json:"keywords"`
	Complexity  Complexity `json:"complexity"`
	Intent      Intent     `json:"intent"`
	Register    Register   `json:"register"`
	QueryType   string     `json:"query_type"`
	Entities    []Entity   `json:"entities"`
	HasNumbers  bool       `json:"has_numbers"`
	HasLocation bool       `json:"has_location"`
	HasActivity bool       `json:"has_activity"`
	IsQuestion  bool       `json:"is_question"`
	ContextType string     `json:"context_type"`
}

// Empty returns the analysis of a blank query.
func Empty(raw, contextType string) Analysis {
	if contextType == "" {
		contextType = "general"
	}
	return Analysis{
		Raw:        raw,
		Complexity: VerySimple,
		Intent: Intent{
			Primary:    IntentGeneral,
			Secondary:  SecondaryNone,
			Confidence: DefaultConfidence,
		},
		Register:    English,
		QueryType:   "general",
		ContextType: contextType,
	}
}

// HasEntityType reports whether any extracted entity is of type t.
func (a Analysis) HasEntityType(t EntityType) bool {
	for _, e := range a.Entities {
		if e.Type == t {
			return true
		}
	}
	return false
}
