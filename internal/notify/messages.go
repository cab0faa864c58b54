package notify

import (
	"fmt"
	"strings"

	"popkiosk/internal/domain"
)

func ShopOrderCreated(o *domain.ShopOrder) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New shop order %s\n", o.ID)
	fmt.Fprintf(&sb, "Customer: %s (%s)\n", o.Customer.Name, o.Customer.Phone)
	for _, item := range o.Items {
		fmt.Fprintf(&sb, "- %dx %s", item.Quantity, item.Name)
		if item.Size != "" {
			fmt.Fprintf(&sb, " (%s)", item.Size)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Total: RM%.2f\n", o.TotalMYR)
	fmt.Fprintf(&sb, "Payment ref: %s", paymentEvidence(o.PaymentRef, o.HasProofImage))
	return sb.String()
}

func KioskOrderCreated(o *domain.KioskOrder) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New kiosk order %s\n", o.ID)
	fmt.Fprintf(&sb, "Customer: %s (%s)\n", o.Customer.Name, o.Customer.Phone)
	fmt.Fprintf(&sb, "%.8f %s on %s for RM%.2f\n", o.AmountCrypto, o.Asset, o.Network, o.AmountMYR)
	fmt.Fprintf(&sb, "Wallet: %s\n", o.WalletAddress)
	fmt.Fprintf(&sb, "Payment ref: %s", paymentEvidence(o.PaymentRef, o.HasProofImage))
	return sb.String()
}

func StatusChanged(orderID string, from, to domain.Status) string {
	return fmt.Sprintf("Order %s: %s -> %s", orderID, from, to)
}

func OrderShipped(orderID, trackingNumber, courier string) string {
	return fmt.Sprintf("Order %s shipped via %s, tracking %s", orderID, courier, trackingNumber)
}

func OrderCompleted(orderID string, txHash *string) string {
	if txHash != nil && *txHash != "" {
		return fmt.Sprintf("Order %s completed, tx %s", orderID, *txHash)
	}
	return fmt.Sprintf("Order %s completed", orderID)
}

func paymentEvidence(ref string, hasProof bool) string {
	switch {
	case ref != "" && hasProof:
		return ref + " (screenshot attached)"
	case hasProof:
		return "screenshot attached"
	case ref != "":
		return ref
	default:
		return "none"
	}
}
