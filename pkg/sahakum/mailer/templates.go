package mailer

import "fmt"

// The association writes to applicants in Swedish with an English
// paragraph below; Khmer is handled by the web UI, not email.

// ApprovalEmail builds the membership-approved notice.
func ApprovalEmail(firstName, memberNumber string) (subject, htmlBody, textBody string) {
	subject = "Välkommen till Sahakum Khmer / Welcome to Sahakum Khmer"
	htmlBody = fmt.Sprintf(
		`<p>Hej %s,</p>
<p>Din medlemsansökan har godkänts. Ditt medlemsnummer är <b>%s</b>.</p>
<p>Hi %s, your membership application has been approved. Your member number is <b>%s</b>.</p>
<p>Sahakum Khmer</p>`,
		firstName, memberNumber, firstName, memberNumber)
	textBody = fmt.Sprintf(
		"Hej %s,\n\nDin medlemsansökan har godkänts. Ditt medlemsnummer är %s.\n\n"+
			"Hi %s, your membership application has been approved. Your member number is %s.\n\nSahakum Khmer",
		firstName, memberNumber, firstName, memberNumber)
	return subject, htmlBody, textBody
}

// CredentialsEmail builds the one-time temporary credentials notice.
func CredentialsEmail(firstName, email, tempPassword, baseURL string) (subject, htmlBody, textBody string) {
	subject = "Ditt konto hos Sahakum Khmer / Your Sahakum Khmer account"
	htmlBody = fmt.Sprintf(
		`<p>Hej %s,</p>
<p>Ett konto har skapats åt dig. Logga in på <a href="%s">%s</a> med:</p>
<p>E-post: <b>%s</b><br>Tillfälligt lösenord: <b>%s</b></p>
<p>Byt lösenord direkt efter första inloggningen.</p>
<p>Hi %s, an account has been created for you. Sign in with the credentials above and change the password after your first login.</p>`,
		firstName, baseURL, baseURL, email, tempPassword, firstName)
	textBody = fmt.Sprintf(
		"Hej %s,\n\nEtt konto har skapats åt dig. Logga in på %s med:\n\n"+
			"E-post: %s\nTillfälligt lösenord: %s\n\nByt lösenord direkt efter första inloggningen.\n\n"+
			"Hi %s, an account has been created for you. Sign in with the credentials above and change the password after your first login.",
		firstName, baseURL, email, tempPassword, firstName)
	return subject, htmlBody, textBody
}
