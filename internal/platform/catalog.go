package platform

import (
	"net/url"
	"strings"
)

// Confidence indicates how reliable a domain match is.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
)

// Category groups platforms by the kind of AI tooling they offer.
type Category string

const (
	CategoryLLM          Category = "llm"
	CategorySearch       Category = "search"
	CategoryCreative     Category = "creative"
	CategoryWriting      Category = "writing"
	CategoryProductivity Category = "productivity"
	CategorySEO          Category = "seo"
	CategoryBusiness     Category = "business"
)

// Descriptor is one catalog entry for a supported AI platform.
type Descriptor struct {
	Domain     string     `json:"domain"`
	Name       string     `json:"name"`
	Confidence Confidence `json:"confidence"`
	Category   Category   `json:"category"`
}

// Match is the result of a successful detection: the catalog entry
// plus the URL that triggered it.
type Match struct {
	Descriptor
	URL string `json:"url"`
}

// Catalog lists the tier-1 platforms tracked by domain substring match.
// Domains are disjoint in practice, so first-match-wins is order independent.
var Catalog = []Descriptor{
	{Domain: "chatgpt.com", Name: "ChatGPT", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "chat.openai.com", Name: "ChatGPT", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "claude.ai", Name: "Claude", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "gemini.google.com", Name: "Gemini", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "perplexity.ai", Name: "Perplexity", Confidence: ConfidenceHigh, Category: CategorySearch},
	{Domain: "poe.com", Name: "Poe", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "grok.x.ai", Name: "Grok", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "copilot.microsoft.com", Name: "Microsoft Copilot", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "bing.com", Name: "Bing Chat", Confidence: ConfidenceHigh, Category: CategorySearch},
	{Domain: "bard.google.com", Name: "Google Bard", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "you.com", Name: "You.com", Confidence: ConfidenceHigh, Category: CategorySearch},
	{Domain: "phind.com", Name: "Phind", Confidence: ConfidenceHigh, Category: CategorySearch},
	{Domain: "pi.ai", Name: "Pi", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "character.ai", Name: "Character.AI", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "huggingface.co", Name: "HuggingChat", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "deepai.org", Name: "DeepAI", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "replicate.com", Name: "Replicate", Confidence: ConfidenceHigh, Category: CategoryLLM},
	{Domain: "runwayml.com", Name: "Runway", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "midjourney.com", Name: "Midjourney", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "stability.ai", Name: "Stability AI", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "leonardo.ai", Name: "Leonardo.AI", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "gamma.app", Name: "Gamma", Confidence: ConfidenceHigh, Category: CategoryProductivity},
	{Domain: "tome.app", Name: "Tome", Confidence: ConfidenceHigh, Category: CategoryProductivity},
	{Domain: "beautiful.ai", Name: "Beautiful.AI", Confidence: ConfidenceHigh, Category: CategoryProductivity},
	{Domain: "synthesia.io", Name: "Synthesia", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "descript.com", Name: "Descript", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "elevenlabs.io", Name: "ElevenLabs", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "play.ht", Name: "Play.HT", Confidence: ConfidenceHigh, Category: CategoryCreative},
	{Domain: "jasper.ai", Name: "Jasper", Confidence: ConfidenceHigh, Category: CategoryWriting},
	{Domain: "copy.ai", Name: "Copy.ai", Confidence: ConfidenceHigh, Category: CategoryWriting},
	{Domain: "writesonic.com", Name: "Writesonic", Confidence: ConfidenceHigh, Category: CategoryWriting},
	{Domain: "rytr.me", Name: "Rytr", Confidence: ConfidenceHigh, Category: CategoryWriting},
	{Domain: "simplified.co", Name: "Simplified", Confidence: ConfidenceHigh, Category: CategoryWriting},
	{Domain: "surgegraph.com", Name: "SurgeGraph", Confidence: ConfidenceHigh, Category: CategorySEO},
	{Domain: "surfer.com", Name: "Surfer", Confidence: ConfidenceHigh, Category: CategorySEO},
	{Domain: "clearscope.io", Name: "Clearscope", Confidence: ConfidenceHigh, Category: CategorySEO},
	{Domain: "ahrefs.com", Name: "Ahrefs AI", Confidence: ConfidenceHigh, Category: CategorySEO},
	{Domain: "semrush.com", Name: "SEMrush AI", Confidence: ConfidenceHigh, Category: CategorySEO},
}

// Detect matches a URL against the catalog. It returns false for URLs
// that fail to parse or whose hostname matches no entry; it never
// returns an error to the caller.
func Detect(rawURL string) (*Match, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	host := u.Hostname()
	if host == "" {
		return nil, false
	}

	for _, desc := range Catalog {
		if strings.Contains(host, desc.Domain) {
			return &Match{Descriptor: desc, URL: rawURL}, true
		}
	}

	return nil, false
}

// Lookup returns the catalog entry for a platform name.
func Lookup(name string) (*Descriptor, bool) {
	for i := range Catalog {
		if Catalog[i].Name == name {
			return &Catalog[i], true
		}
	}
	return nil, false
}
