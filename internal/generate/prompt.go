package generate

import (
	"fmt"
	"strings"
)

// systemPrompt is the shared instruction for connection sentences.
const systemPrompt = `Je schrijft namens een student-consultant van Young Advisory Group (YAG), een volledig door studenten gerund adviesbureau.
Je schrijft korte, concrete en zakelijke zinnen in het Nederlands.

Regels:
- Geef ALLEEN 2-3 zinnen platte tekst terug, zonder opmaak, links of haakjes
- De ontvanger kent het eigen bedrijf: vat het bedrijf NIET samen
- Verboden woorden: "innovatief", "onder de indruk", "met interesse gevolgd"
- Geen URLs`

// connectionPrompt asks for the sentences explaining why the sender reached
// out to this company.
func connectionPrompt(s Sender, firstName, jobTitle, company string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bedrijf: %s\n", company)
	fmt.Fprintf(&sb, "Ontvanger: %s", firstName)
	if jobTitle != "" {
		fmt.Fprintf(&sb, ", %s", jobTitle)
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Schrijf 2-3 zinnen die uitleggen waarom %s, student %s (%s), specifiek bij %s uitkwam.\n",
		s.Name, s.Study, s.University, company)
	fmt.Fprintf(&sb, "Schrijf vanuit het perspectief en de interesse van %s:\n", s.FirstName())
	sb.WriteString("- Welk thema uit de studie (logistiek, processen, strategie, data, techniek, operations) is relevant voor hun sector?\n")
	sb.WriteString("- Welk type vraagstuk speelt er in hun branche?\n")
	sb.WriteString("- Wees concreet en specifiek voor dit bedrijf.")
	return sb.String()
}
