/*
Package sales specializes the lifecycle engine for machinery sales.

A machine is the guarded resource; a sale is a direct-active exclusive claim
on it. There is no approval workflow here: recording a sale immediately flips
the machine from Available to Sold, and at most one active sale may exist per
machine. Releasing a sale soft-deletes it and frees the
machine; restoring it re-claims the machine if nothing else has in the
meantime. Soft-deleted sales are purged the next time the machine is sold.
*/
package sales

import "github.com/warp/lifecycle-engine/generic"

// Domain tags machine resources in storage.
const Domain = "sales"

// Machine statuses (closed set).
const (
	StatusAvailable        generic.ResourceStatus = "available"
	StatusSold             generic.ResourceStatus = "sold"
	StatusUnderMaintenance generic.ResourceStatus = "under_maintenance"
)

// CategorySale tags sale claim records.
const CategorySale = "sale"

// NewMachine builds an Available machine resource.
func NewMachine(id generic.ResourceID, name string) generic.Resource {
	return generic.Resource{
		ID:     id,
		Domain: Domain,
		Name:   name,
		Status: StatusAvailable,
	}
}
