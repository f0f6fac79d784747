package reconcile

// RunsTotal exposes the run counter to tests.
var RunsTotal = runsTotal
