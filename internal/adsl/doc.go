// SPDX-License-Identifier: MPL-2.0

// Package adsl reads the account state of an adsl.by subscriber from the
// provider's statistics page and can switch on the overdraft credit.
package adsl
