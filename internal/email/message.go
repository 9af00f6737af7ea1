package email

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// BuildHTMLMessage assembles a complete RFC 5322 message with an HTML body,
// suitable for handing straight to a Sender.
func BuildHTMLMessage(from, to, subject, messageID string, htmlBody []byte) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", sanitizeHeader(subject))
	fmt.Fprintf(&msg, "Message-ID: <%s@%s>\r\n", messageID, domainOf(from))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(htmlBody)
	return msg.Bytes()
}

// sanitizeHeader strips CR/LF so user-influenced values cannot inject headers.
func sanitizeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.ReplaceAll(v, "\n", " ")
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i+1 < len(addr) {
		return strings.TrimSuffix(addr[i+1:], ">")
	}
	return "localhost"
}
