package ledger

import "strings"

const transferPrefix = "Transfer to: "

// IsTransferTitle reports whether an expense title records a funds transfer
// rather than a real expense. Transfers are kept out of the expense export
// and its totals.
func IsTransferTitle(title string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(title)), strings.ToLower(transferPrefix))
}

// TransferTitle builds the canonical title for a transfer record.
func TransferTitle(recipient string) string {
	return transferPrefix + strings.TrimSpace(recipient)
}

// TransferLabel returns the recipient part of a transfer title, or the title
// unchanged when it is not a transfer record.
func TransferLabel(title string) string {
	if !IsTransferTitle(title) {
		return title
	}
	label := strings.TrimSpace(title[len(transferPrefix):])
	if label == "" {
		return "Recipient"
	}
	return label
}
