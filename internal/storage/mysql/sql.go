package mysql

const insertSnapshotSQL = `
INSERT INTO crawl_snapshots
  (id, center_lat, center_lon, radius, real_estate_type, price_type, source,
   complexes, complex_details, articles, road_plans, rail_plans, jigu_plans,
   body, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const snapshotColumns = `
  id, center_lat, center_lon, radius, real_estate_type, price_type, source,
  complexes, complex_details, articles, road_plans, rail_plans, jigu_plans,
  created_at`

const getSnapshotSQL = `SELECT` + snapshotColumns + `, body
FROM crawl_snapshots
WHERE id = ?`

// Newest first; matches idx_snapshots_created. Bodies are left out of listings.
const listSnapshotsSQL = `SELECT` + snapshotColumns + `
FROM crawl_snapshots
ORDER BY created_at DESC, id DESC
LIMIT ?`
