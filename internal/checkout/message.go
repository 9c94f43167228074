package checkout

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	deepLinkBase   = "https://wa.me/"
	contactMessage = "Hello! I need help choosing the right food products."
	notProvided    = "Not provided"
)

// Renderer writes the order summary sent through the messaging hand-off.
// Output depends only on its inputs, so the same order renders identically.
type Renderer struct {
	storeName string
	currency  string
	location  *time.Location
	printer   *message.Printer
}

func NewRenderer(storeName, currency string, location *time.Location) *Renderer {
	if location == nil {
		location = time.UTC
	}
	return &Renderer{
		storeName: storeName,
		currency:  currency,
		location:  location,
		printer:   message.NewPrinter(language.English),
	}
}

// Money formats an amount with the currency code and thousands separators.
func (r *Renderer) Money(amount int64) string {
	return r.printer.Sprintf("%s %d", r.currency, amount)
}

func (r *Renderer) Render(orderNumber string, placedAt time.Time, info domain.CustomerInfo, lines []domain.CartLine) string {
	placedAt = placedAt.In(r.location)

	var b strings.Builder
	b.WriteString("*NEW ORDER PLACED*\n\n")

	b.WriteString("*Order Details*\n")
	b.WriteString("Order #: *" + orderNumber + "*\n")
	b.WriteString("Date: " + placedAt.Format("Monday, January 2, 2006") + "\n")
	b.WriteString("Time: " + placedAt.Format("03:04 PM") + "\n\n")

	b.WriteString("*Customer Information*\n")
	b.WriteString("Name: " + info.Name + "\n")
	b.WriteString("Email: " + orDefault(info.Email) + "\n")
	b.WriteString("Phone: " + orDefault(info.Phone) + "\n")
	b.WriteString("Address: " + orDefault(info.Address) + "\n\n")

	b.WriteString("*Ordered Items*\n")
	var quantity int
	var total int64
	for i, line := range lines {
		p := line.Product
		b.WriteString(r.printer.Sprintf("\n*%d. %s*\n", i+1, p.Name))
		b.WriteString(r.printer.Sprintf("   Quantity: %d %s\n", line.Quantity, p.Unit))
		b.WriteString("   Unit Price: " + r.Money(p.Price) + "\n")
		b.WriteString("   Subtotal: " + r.Money(line.Subtotal()) + "\n")
		b.WriteString("   Tags: " + strings.Join(p.Tags, ", ") + "\n")
		quantity += line.Quantity
		total += line.Subtotal()
	}

	b.WriteString("\n*Order Summary*\n")
	b.WriteString(r.printer.Sprintf("Total Items: %d\n", len(lines)))
	b.WriteString(r.printer.Sprintf("Total Quantity: %d units\n", quantity))
	b.WriteString("*Total Amount: " + r.Money(total) + "*\n\n")

	if info.Notes != "" {
		b.WriteString("*Special Notes*\n" + info.Notes + "\n\n")
	}

	b.WriteString("*Order Status: PENDING*\n")
	b.WriteString("Delivery will be arranged after confirmation\n")
	b.WriteString("Payment: Cash on Delivery\n\n")
	b.WriteString("Thank you for choosing " + r.storeName + "!\n")
	b.WriteString("We'll contact you shortly to confirm your order.")

	return b.String()
}

// DeepLink addresses text to number on the messaging service.
func DeepLink(number, text string) string {
	return deepLinkBase + number + "?text=" + encodeComponent(text)
}

// ContactLink is the general help link offered next to the catalog.
func ContactLink(number string) string {
	return DeepLink(number, contactMessage)
}

// encodeComponent percent-encodes every byte outside
// A-Z a-z 0-9 - _ . ! ~ * ' ( ), the set browsers leave intact in URI
// components. Spaces become %20 and the bold markers stay readable.
func encodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func orDefault(s string) string {
	if s == "" {
		return notProvided
	}
	return s
}
