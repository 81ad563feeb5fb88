package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Toggle Errors (E001-E009)
	// ============================================

	"E001": {
		Category:   CategoryToggle,
		Message:    "Toggle request failed",
		Detail:     "The confirming request for an optimistic toggle failed. The displayed state was reverted to the last confirmed value.",
		Suggestion: "Click again to retry",
		DocURL:     "https://folio.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryToggle,
		Message:  "Toggle state mismatch",
		Detail:   "The server confirmed a value different from the one requested. The confirmed state was left unchanged.",
		DocURL:   "https://folio.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryToggle,
		Message:  "Toggle closed",
		Detail:   "The toggle was torn down and no longer accepts events.",
		DocURL:   "https://folio.dev/docs/errors/E003",
	},

	// ============================================
	// Document Errors (E010-E019)
	// ============================================

	"E010": {
		Category: CategoryDocument,
		Message:  "Document mutation rejected",
		Detail:   "The editor rejected the mutation. No change batch was emitted and the document is unchanged.",
		DocURL:   "https://folio.dev/docs/errors/E010",
	},
	"E011": {
		Category:   CategoryDocument,
		Message:    "Attachment limit exceeded",
		Detail:     "The document would contain more images than the configured maximum.",
		Suggestion: "Remove an image before adding another, or raise editor.maxAttachments",
		DocURL:     "https://folio.dev/docs/errors/E011",
	},
	"E012": {
		Category: CategoryDocument,
		Message:  "Unknown element",
		Detail:   "No element with the given key exists in the document.",
		DocURL:   "https://folio.dev/docs/errors/E012",
	},

	// ============================================
	// Upload Errors (E020-E029)
	// ============================================

	"E020": {
		Category: CategoryUpload,
		Message:  "Upload too large",
		Detail:   "The uploaded file exceeds server.maxUploadSize.",
		DocURL:   "https://folio.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryUpload,
		Message:  "Upload not found",
		Detail:   "The temp upload does not exist or has already been claimed.",
		DocURL:   "https://folio.dev/docs/errors/E021",
	},
	"E022": {
		Category:   CategoryUpload,
		Message:    "Upload type not allowed",
		Detail:     "Only image uploads are accepted by the editor endpoint.",
		Suggestion: "Upload a JPEG, PNG, GIF or WebP image",
		DocURL:     "https://folio.dev/docs/errors/E022",
	},

	// ============================================
	// Session Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategorySession,
		Message:  "Unknown editor message",
		Detail:   "The editor session received a message type it does not handle.",
		DocURL:   "https://folio.dev/docs/errors/E030",
	},
	"E031": {
		Category:   CategorySession,
		Message:    "Document already loaded",
		Detail:     "A load message is only accepted before any other message on the session.",
		Suggestion: "Send load first, or use data to replace the document",
		DocURL:     "https://folio.dev/docs/errors/E031",
	},

	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Detail:     "The configuration file could not be parsed or contains invalid values.",
		Suggestion: "Check folio.json / folio.yaml against the documented schema",
		DocURL:     "https://folio.dev/docs/errors/E120",
	},
	"E141": {
		Category:   CategoryConfig,
		Message:    "Configuration not found",
		Detail:     "No folio.json or folio.yaml was found.",
		Suggestion: "Create folio.json or pass --config",
		DocURL:     "https://folio.dev/docs/errors/E141",
	},
}

// Register adds or replaces an error template. Intended for extensions.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
