package debrief

// Section keys of the report, in canonical order. Downstream consumers
// match on these strings.
const (
	SectionAddress     = "Call-taker obtained and verified the address"
	SectionPhone       = "Call-taker obtained and verified caller's phone"
	SectionName        = "Call-taker obtained and verified caller's full name"
	SectionProblem     = "Call-taker asked what is the problem?"
	SectionInjured     = "Call-taker questioned about the number of injured persons?"
	SectionAge         = "Call-taker asked for age of patient(s)?"
	SectionConscious   = "Call-taker asked if the patient(s) conscious?"
	SectionBreathing   = "Call-taker asked if the patient(s) breathing normally?"
	SectionQuestions   = "Call-taker used guidecards to obtain additional information?"
	SectionPrearrivals = "Call-taker used guidecards to provide prearrival instructions?"
	SectionCritical    = "Call-taker used guide cards to provide Time / Life Critical Instructions?"
	SectionSceneSafety = "Call-taker obtained scene safety / suspect information?"
)

// SectionKeys lists every section key in report order.
var SectionKeys = []string{
	SectionAddress,
	SectionPhone,
	SectionName,
	SectionProblem,
	SectionInjured,
	SectionAge,
	SectionConscious,
	SectionBreathing,
	SectionQuestions,
	SectionPrearrivals,
	SectionCritical,
	SectionSceneSafety,
}

// Sub-flag names of the identity sections.
const (
	FlagAskedAddressFirst   = "asked address first"
	FlagAddressDoubleCheck  = "address double checking"
	FlagObtainedAddress     = "obtained address"
	FlagDoubleCheckAtEnd    = "double check at the end"
	FlagAskPhoneNumber      = "ask for phone number"
	FlagPhoneFollowUp       = "phone number follow up"
	FlagObtainedPhoneNumber = "obtained phone number"
	FlagAskFullName         = "ask for full name"
	FlagFullNameFollowUp    = "full name follow up"
	FlagObtainedFullName    = "obtained full name"
)

// GeneralCheck is a single-question section judged with one call.
type GeneralCheck struct {
	// Section is the report key.
	Section string
	// Prompt is the statement sent to the validator.
	Prompt string
}

// GeneralChecks are the single-question sections. Scene safety is asked
// conditionally so that calls with no danger to responders are not
// marked as failures.
var GeneralChecks = []GeneralCheck{
	{Section: SectionProblem, Prompt: SectionProblem},
	{Section: SectionInjured, Prompt: SectionInjured},
	{Section: SectionAge, Prompt: SectionAge},
	{Section: SectionConscious, Prompt: SectionConscious},
	{Section: SectionBreathing, Prompt: SectionBreathing},
	{
		Section: SectionSceneSafety,
		Prompt:  "If the scene is potentially dangerous to first responders, call-taker obtained scene safety / suspect information",
	},
}
