// Package dates turns the partial dates found in bibliographic records
// ("2020", "2020.2", "20200215") into concrete calendar days.
//
// Publication dates are checked strictly and resolve a bare year to its
// first day. Acquisition and discontinuance dates are lenient and resolve
// missing parts to the end of the month or year.
package dates
