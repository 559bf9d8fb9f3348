// internal/analyzers/chatbot.go
package analyzers

import (
	"fmt"

	"leadgenius/internal/models"
)

var chatbotSignatures = []signature{
	sig(`intercom`, "Intercom"),
	sig(`drift\.com`, "Drift"),
	sig(`tawk\.to`, "Tawk.to"),
	sig(`zendesk.*chat`, "Zendesk Chat"),
	sig(`crisp\.chat`, "Crisp"),
	sig(`livechatinc\.com`, "LiveChat"),
	sig(`tidio\.com`, "Tidio"),
	sig(`olark`, "Olark"),
	sig(`freshchat`, "Freshchat"),
	sig(`hubspot.*conversations`, "HubSpot Chat"),

	sig(`chat.*widget`, "Generic Chat Widget"),
	sig(`live.*chat`, "Generic Live Chat"),
	sig(`webchat`, "Generic Web Chat"),
}

var chatSelectors = []string{
	"#chat-widget",
	".chat-widget",
	"[data-chat]",
	".livechat",
	"#livechat",
	".chat-button",
	"#chat-button",
	`[class*="chat"]`,
	`[id*="chat"]`,
}

// DetectChatbot looks for chat widgets in scripts, DOM elements and iframes.
func DetectChatbot(html string) (result models.ChatbotDetection) {
	if html == "" {
		return models.ChatbotDetection{
			HasChatbot: false,
			Confidence: 1.0,
			Evidence:   []string{"No website HTML available"},
		}
	}

	failed := models.ChatbotDetection{Evidence: []string{"Analysis failed"}}
	defer func() {
		if r := recover(); r != nil {
			result = failed
		}
	}()

	doc, err := parse(html)
	if err != nil {
		return failed
	}

	d := &detector{signatures: chatbotSignatures, evidence: []string{}}
	d.scanScripts(doc, "Found {provider} in script tag")

	for _, sel := range chatSelectors {
		if n := doc.Find(sel).Length(); n > 0 {
			d.add(fmt.Sprintf("Found chat element: %s (%d instances)", sel, n))
		}
	}

	d.scanIframes(doc)

	return models.ChatbotDetection{
		HasChatbot:       len(d.evidence) > 0,
		Confidence:       confidence(len(d.evidence), 0.4),
		DetectedProvider: d.provider,
		Evidence:         d.evidence,
	}
}
