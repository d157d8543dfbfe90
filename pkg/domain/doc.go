/*
Package domain contains the building blocks shared by candidate requests and
proposals: the optimization domain, the tabular experiment and candidate
payloads, the strategy descriptor and the validation error taxonomy.

It is kept free of I/O so that every type can be validated synchronously and
shared read-only across goroutines.

# Key Entities

  - Domain: declared input and output features of an optimization problem.
  - Experiments: observed rows of input values paired with measured outputs.
  - Candidates: rows of proposed input values awaiting execution.
  - Strategy: descriptor of the optimization strategy to run, carrying its Domain.
  - ValidationError: the list of FieldErrors produced by a failed validation,
    each tagged with ErrStructural, ErrDomainViolation or ErrIllegalFieldCombination.
*/
package domain
