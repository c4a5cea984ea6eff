package script

import (
	"scriptinsight/internal/artifact"
	"scriptinsight/internal/wordidx"
)

// serviceTable lists the platform namespaces we recognise, in output order.
var serviceTable = []artifact.GoogleServiceUsage{
	{Namespace: "SpreadsheetApp", Service: "Google Sheets"},
	{Namespace: "DocumentApp", Service: "Google Docs"},
	{Namespace: "DriveApp", Service: "Google Drive"},
	{Namespace: "GmailApp", Service: "Gmail"},
	{Namespace: "MailApp", Service: "Mail"},
	{Namespace: "CalendarApp", Service: "Google Calendar"},
	{Namespace: "FormApp", Service: "Google Forms"},
	{Namespace: "SlidesApp", Service: "Google Slides"},
	{Namespace: "UrlFetchApp", Service: "URL Fetch"},
	{Namespace: "PropertiesService", Service: "Properties"},
	{Namespace: "CacheService", Service: "Cache"},
	{Namespace: "LockService", Service: "Lock"},
	{Namespace: "HtmlService", Service: "HTML Service"},
	{Namespace: "ContentService", Service: "Content Service"},
	{Namespace: "ScriptApp", Service: "Script Service"},
	{Namespace: "Utilities", Service: "Utilities"},
	{Namespace: "Session", Service: "Session"},
}

// ExtractServices reports every namespace token present in idx.
func ExtractServices(idx *wordidx.UnitIndex) []artifact.GoogleServiceUsage {
	out := []artifact.GoogleServiceUsage{}
	for _, svc := range serviceTable {
		if idx.Has(svc.Namespace) {
			out = append(out, svc)
		}
	}
	return out
}
