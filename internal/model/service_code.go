package model

// ServiceCode is a normalized procedure code with the raw token kept for
// traceability.
type ServiceCode struct {
	Code     string     // 4-5 alphanumeric chars, leading zeros significant
	Modifier string     // optional 2-char pricing modifier
	System   CodeSystem // never SystemUnknown on a validated code
	Raw      string     // original token as extracted
}

// Key returns the dedupe identity of the code: normalized code plus modifier.
func (c ServiceCode) Key() string {
	if c.Modifier == "" {
		return c.Code
	}
	return c.Code + "-" + c.Modifier
}

// CodeRejection explains why a raw token was not accepted as a service code.
type CodeRejection struct {
	Token  string
	Reason string
}
