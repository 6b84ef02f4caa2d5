package catalog

import "github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"

// Builtin returns a catalog preloaded with the default capability set.
// Deployments normally extend or replace it via FromFile.
func Builtin() *Catalog {
	c := New()
	c.RegisterMany(builtinCapabilities())
	return c
}

func builtinCapabilities() []Capability {
	return []Capability{
		{
			ID:          "schedule-trigger",
			Name:        "Schedule",
			Category:    CategoryTrigger,
			Description: "Fires on a recurring schedule",
			ConfigSchema: workflow.Schema{
				"cron": {Type: workflow.FieldCron, Label: "Schedule", Required: true,
					Description: "Five-field cron expression"},
			},
		},
		{
			ID:          "webhook-trigger",
			Name:        "Webhook",
			Category:    CategoryTrigger,
			Description: "Fires when an HTTP request hits the workflow's webhook URL",
			ConfigSchema: workflow.Schema{
				"path":   {Type: workflow.FieldString, Label: "Path"},
				"method": {Type: workflow.FieldSelect, Label: "Method", Options: []string{"GET", "POST", "PUT"}, Default: "POST"},
			},
		},
		{
			ID:          "new-row-in-sheet",
			Name:        "New Spreadsheet Row",
			Category:    CategoryTrigger,
			Description: "Fires when a row is appended to a spreadsheet",
			ConfigSchema: workflow.Schema{
				"connection":  {Type: workflow.FieldConnection, Label: "Google Sheets account", Integration: "google_sheets", Required: true},
				"spreadsheet": {Type: workflow.FieldString, Label: "Spreadsheet", Integration: "google_sheets", Resource: "spreadsheet", Required: true},
				"worksheet":   {Type: workflow.FieldString, Label: "Worksheet"},
			},
		},
		{
			ID:          "new-email-received",
			Name:        "New Email",
			Category:    CategoryTrigger,
			Description: "Fires when an email arrives in the connected inbox",
			ConfigSchema: workflow.Schema{
				"connection": {Type: workflow.FieldConnection, Label: "Email account", Integration: "gmail", Required: true},
				"folder":     {Type: workflow.FieldString, Label: "Folder", Default: "INBOX"},
			},
		},
		{
			ID:          "send-email",
			Name:        "Send Email",
			Category:    CategoryAction,
			Description: "Sends an email through the connected account",
			ConfigSchema: workflow.Schema{
				"connection": {Type: workflow.FieldConnection, Label: "Email account", Integration: "gmail", Required: true},
				"to":         {Type: workflow.FieldString, Label: "To", Required: true},
				"subject":    {Type: workflow.FieldString, Label: "Subject", Required: true},
				"body":       {Type: workflow.FieldTextarea, Label: "Body"},
			},
		},
		{
			ID:          "send-slack-message",
			Name:        "Send Slack Message",
			Category:    CategoryAction,
			Description: "Posts a message to a Slack channel",
			ConfigSchema: workflow.Schema{
				"connection": {Type: workflow.FieldConnection, Label: "Slack workspace", Integration: "slack", Required: true},
				"channel":    {Type: workflow.FieldString, Label: "Channel", Integration: "slack", Resource: "channel", Required: true},
				"message":    {Type: workflow.FieldTextarea, Label: "Message", Required: true},
			},
		},
		{
			ID:          "append-sheet-row",
			Name:        "Append Spreadsheet Row",
			Category:    CategoryAction,
			Description: "Appends a row to a spreadsheet",
			ConfigSchema: workflow.Schema{
				"connection":  {Type: workflow.FieldConnection, Label: "Google Sheets account", Integration: "google_sheets", Required: true},
				"spreadsheet": {Type: workflow.FieldString, Label: "Spreadsheet", Integration: "google_sheets", Resource: "spreadsheet", Required: true},
				"values":      {Type: workflow.FieldTextarea, Label: "Row values"},
			},
		},
		{
			ID:          "http-request",
			Name:        "HTTP Request",
			Category:    CategoryAction,
			Description: "Performs an HTTP request against an arbitrary URL",
			ConfigSchema: workflow.Schema{
				"url":     {Type: workflow.FieldString, Label: "URL", Required: true},
				"method":  {Type: workflow.FieldSelect, Label: "Method", Options: []string{"GET", "POST", "PUT", "DELETE"}, Default: "GET"},
				"headers": {Type: workflow.FieldTextarea, Label: "Headers"},
				"body":    {Type: workflow.FieldTextarea, Label: "Body"},
			},
		},
		{
			ID:          "filter",
			Name:        "Filter",
			Category:    CategoryTransform,
			Description: "Continues only when a condition holds",
			ConfigSchema: workflow.Schema{
				"condition": {Type: workflow.FieldString, Label: "Condition", Required: true},
			},
		},
		{
			ID:          "format-text",
			Name:        "Format Text",
			Category:    CategoryTransform,
			Description: "Builds a text value from upstream fields",
			ConfigSchema: workflow.Schema{
				"template": {Type: workflow.FieldTextarea, Label: "Template", Required: true},
			},
		},
	}
}
