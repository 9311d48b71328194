package repository

// SplitDSN открывает splitDSN для тестов.
var SplitDSN = splitDSN
