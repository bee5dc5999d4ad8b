package guard

type Config struct {
	// RequireApproval=false auto-approves every command that is not denied.
	RequireApproval bool
	AutoApprove     []string
	DenyTokens      []string

	Redaction RedactionConfig
	Audit     AuditConfig
}

type RedactionConfig struct {
	Enabled  bool
	Patterns []RegexPattern
}

type RegexPattern struct {
	Name string
	Re   string
}

type AuditConfig struct {
	JSONLPath      string
	RotateMaxBytes int64
}
