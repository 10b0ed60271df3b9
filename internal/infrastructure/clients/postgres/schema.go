package postgres

const schemaDDL = `
CREATE TABLE IF NOT EXISTS therapists (
	id                    TEXT PRIMARY KEY,
	slug                  TEXT NOT NULL DEFAULT '',
	user_id               TEXT,
	name                  TEXT NOT NULL DEFAULT '',
	credentials           TEXT NOT NULL DEFAULT '',
	tagline               TEXT NOT NULL DEFAULT '',
	email                 TEXT NOT NULL DEFAULT '',
	phone                 TEXT NOT NULL DEFAULT '',
	website               TEXT NOT NULL DEFAULT '',
	bio                   TEXT NOT NULL DEFAULT '',
	specialty_description TEXT NOT NULL DEFAULT '',
	treatment_description TEXT NOT NULL DEFAULT '',
	city                  TEXT NOT NULL DEFAULT '',
	state                 TEXT NOT NULL DEFAULT '',
	zip                   TEXT NOT NULL DEFAULT '',
	remote                BOOLEAN NOT NULL DEFAULT FALSE,
	insurance             TEXT NOT NULL DEFAULT '',
	fee_individual        TEXT NOT NULL DEFAULT '',
	fee_couples           TEXT NOT NULL DEFAULT '',
	languages             TEXT[] NOT NULL DEFAULT '{}',
	issues                TEXT[] NOT NULL DEFAULT '{}',
	ages                  TEXT[] NOT NULL DEFAULT '{}',
	communities           TEXT[] NOT NULL DEFAULT '{}',
	treatment_style       TEXT[] NOT NULL DEFAULT '{}',
	payment_methods       TEXT[] NOT NULL DEFAULT '{}',
	published             BOOLEAN NOT NULL DEFAULT FALSE,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS therapists_slug_key ON therapists (slug) WHERE slug <> '';
CREATE INDEX IF NOT EXISTS therapists_published_name_idx ON therapists (published, name, id);
CREATE INDEX IF NOT EXISTS therapists_issues_idx ON therapists USING GIN (issues);
CREATE INDEX IF NOT EXISTS therapists_languages_idx ON therapists USING GIN (languages);
`
