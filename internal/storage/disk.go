package storage

import "os"

// sqliteSidecars are the files SQLite keeps next to a database in WAL mode.
var sqliteSidecars = []string{"", "-wal", "-shm"}

// DatabaseSizeBytes returns the on-disk size of the SQLite database at dbPath, including
// its WAL and shared-memory files. Missing files contribute 0.
func DatabaseSizeBytes(dbPath string) (int64, error) {
	if dbPath == "" {
		return 0, nil
	}
	var total int64
	for _, suffix := range sqliteSidecars {
		info, err := os.Stat(dbPath + suffix)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
