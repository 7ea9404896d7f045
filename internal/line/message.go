package line

// Message is one element of the "messages" array accepted by the push and
// reply endpoints. Text messages set Text; flex messages set AltText and Contents.
type Message struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	AltText  string `json:"altText,omitempty"`
	Contents *Flex  `json:"contents,omitempty"`
}

// Flex is a flex container or component in its wire form. Only the fields used
// by the order card are modelled; the client hands the JSON to the SDK.
type Flex struct {
	Type     string `json:"type"`
	Layout   string `json:"layout,omitempty"`
	Text     string `json:"text,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Wrap     bool   `json:"wrap,omitempty"`
	Flex     int    `json:"flex,omitempty"`
	Spacing  string `json:"spacing,omitempty"`
	Margin   string `json:"margin,omitempty"`
	Header   *Flex  `json:"header,omitempty"`
	Body     *Flex  `json:"body,omitempty"`
	Contents []Flex `json:"contents,omitempty"`
}

func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

func FlexMessage(altText string, bubble *Flex) Message {
	return Message{Type: "flex", AltText: altText, Contents: bubble}
}
