package signup

// ConstraintRule is one password rule as exposed to clients.
type ConstraintRule struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

// PasswordConstraints describes the configured password policy. It is what
// GET /password-constraints returns so signup forms can validate before
// submitting.
type PasswordConstraints struct {
	MinLength  int              `json:"minLength"`
	MaxLength  int              `json:"maxLength"`
	Validation []ConstraintRule `json:"validation"`
}

// PasswordConstraints reads the password column's declared constraints,
// localizing each rule message. It has no side effects beyond translation
// lookups.
func (p *Plugin) PasswordConstraints() PasswordConstraints {
	col := p.passwordColumn

	rules := make([]ConstraintRule, 0, len(col.Validation))
	for _, rule := range col.Validation {
		rules = append(rules, ConstraintRule{
			Pattern: rule.Pattern,
			Message: p.tr(rule.Message, nil),
		})
	}

	return PasswordConstraints{
		MinLength:  col.MinLength,
		MaxLength:  col.MaxLength,
		Validation: rules,
	}
}
