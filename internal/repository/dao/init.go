package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Vendor{},
		&Event{},
		&Ticket{},
		&NumberLimit{},
	); err != nil {
		return err
	}

	if err := installCounterFunctions(db); err != nil {
		return err
	}

	return installNotifyTriggers(db)
}

// installCounterFunctions creates the server-side conditional counter
// procedures. The increment is a single conditional UPDATE so two racing
// vendors can never push times_sold past max_times; the decrement clamps at
// zero. Both report whether a row was changed.
func installCounterFunctions(db *gorm.DB) error {
	statements := []string{
		`CREATE OR REPLACE FUNCTION increment_number_sold_safely(p_limit_id uuid, p_increment integer, p_max_times integer)
		RETURNS boolean AS $$
		DECLARE
			affected integer;
		BEGIN
			UPDATE number_limits
			SET times_sold = times_sold + p_increment
			WHERE id = p_limit_id
			  AND times_sold + p_increment <= p_max_times;
			GET DIAGNOSTICS affected = ROW_COUNT;
			RETURN affected > 0;
		END;
		$$ LANGUAGE plpgsql`,

		`CREATE OR REPLACE FUNCTION decrement_number_sold_safely(p_limit_id uuid, p_decrement integer)
		RETURNS boolean AS $$
		DECLARE
			affected integer;
		BEGIN
			UPDATE number_limits
			SET times_sold = GREATEST(0, times_sold - p_decrement)
			WHERE id = p_limit_id;
			GET DIAGNOSTICS affected = ROW_COUNT;
			RETURN affected > 0;
		END;
		$$ LANGUAGE plpgsql`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}

// installNotifyTriggers wires row changes on tickets, number_limits and events
// to pg_notify on the "sorteo_changes" channel. The payload carries only the
// table and scope keys; listeners re-fetch the authoritative rows themselves.
func installNotifyTriggers(db *gorm.DB) error {
	statements := []string{
		`CREATE OR REPLACE FUNCTION notify_sorteo_changes()
		RETURNS trigger AS $$
		DECLARE
			rec record;
			payload text;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				rec := OLD;
			ELSE
				rec := NEW;
			END IF;
			IF TG_TABLE_NAME = 'events' THEN
				payload := json_build_object('table', TG_TABLE_NAME, 'op', TG_OP, 'event_id', rec.id)::text;
			ELSIF TG_TABLE_NAME = 'tickets' THEN
				payload := json_build_object('table', TG_TABLE_NAME, 'op', TG_OP, 'event_id', rec.event_id, 'vendor_email', rec.vendor_email)::text;
			ELSE
				payload := json_build_object('table', TG_TABLE_NAME, 'op', TG_OP, 'event_id', rec.event_id)::text;
			END IF;
			PERFORM pg_notify('sorteo_changes', payload);
			RETURN rec;
		END;
		$$ LANGUAGE plpgsql`,

		`DROP TRIGGER IF EXISTS tickets_notify ON tickets`,
		`CREATE TRIGGER tickets_notify AFTER INSERT OR UPDATE OR DELETE ON tickets
		FOR EACH ROW EXECUTE FUNCTION notify_sorteo_changes()`,

		`DROP TRIGGER IF EXISTS number_limits_notify ON number_limits`,
		`CREATE TRIGGER number_limits_notify AFTER INSERT OR UPDATE OR DELETE ON number_limits
		FOR EACH ROW EXECUTE FUNCTION notify_sorteo_changes()`,

		`DROP TRIGGER IF EXISTS events_notify ON events`,
		`CREATE TRIGGER events_notify AFTER INSERT OR UPDATE OR DELETE ON events
		FOR EACH ROW EXECUTE FUNCTION notify_sorteo_changes()`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
